package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/yield-vault/x/vault/types"
)

// GetTxCmd returns the transaction commands for the vault module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Vault module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdDeposit(),
		CmdMint(),
		CmdWithdraw(),
		CmdRedeem(),
		CmdApproveShares(),
		CmdAddStrategy(),
		CmdUpdateAllocation(),
		CmdRemoveStrategy(),
		CmdRebalance(),
		CmdCompleteWithdrawal(),
		CmdEmergencyWithdrawAll(),
		CmdSetPaused(),
	)

	return cmd
}

// CmdDeposit returns the command to deposit assets for shares
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [assets] [receiver]",
		Short: "Deposit assets and mint shares to the receiver",
		Long: `Deposit an exact asset amount into the vault. Shares are minted
to the receiver at the current exchange rate, rounded down.

Examples:
  vaultd tx vault deposit 1000 cosmos1abc... --from alice
  vaultd tx vault deposit 500 cosmos1abc... --from bob`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgDeposit{
				Depositor: clientCtx.GetFromAddress().String(),
				Receiver:  args[1],
				Assets:    args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdMint returns the command to mint an exact share amount
func CmdMint() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint [shares] [receiver]",
		Short: "Mint an exact share amount, charging the required assets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgMint{
				Depositor: clientCtx.GetFromAddress().String(),
				Receiver:  args[1],
				Shares:    args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to withdraw an exact asset amount
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [assets] [owner] [receiver]",
		Short: "Withdraw an exact asset amount, burning the required shares",
		Long: `Withdraw an exact asset amount from the vault. If the idle balance
cannot cover it the claim is queued and settled later.

Examples:
  vaultd tx vault withdraw 250 cosmos1abc... cosmos1abc... --from alice`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgWithdraw{
				Caller:   clientCtx.GetFromAddress().String(),
				Owner:    args[1],
				Receiver: args[2],
				Assets:   args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRedeem returns the command to redeem an exact share amount
func CmdRedeem() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem [shares] [owner] [receiver]",
		Short: "Redeem an exact share amount for assets",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgRedeem{
				Caller:   clientCtx.GetFromAddress().String(),
				Owner:    args[1],
				Receiver: args[2],
				Shares:   args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdApproveShares returns the command to grant a share allowance
func CmdApproveShares() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve-shares [spender] [shares]",
		Short: "Allow a spender to burn your shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgApproveShares{
				Owner:   clientCtx.GetFromAddress().String(),
				Spender: args[0],
				Shares:  args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdAddStrategy returns the command to register a strategy
func CmdAddStrategy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-strategy [address] [target-bps] [kind]",
		Short: "Register a new strategy (manager only)",
		Long: `Register a new strategy with a target allocation in basis points.
Kind is 'convertible' or 'direct'.

Examples:
  vaultd tx vault add-strategy cosmos1strat... 4000 convertible --from manager
  vaultd tx vault add-strategy cosmos1strat... 2000 direct --lockup --from manager`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			targetBps, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid target-bps: %v", err)
			}
			kind := strings.ToLower(args[2])
			hasLockup, _ := cmd.Flags().GetBool("lockup")

			msg := &types.MsgAddStrategy{
				Authority: clientCtx.GetFromAddress().String(),
				Address:   args[0],
				TargetBps: targetBps,
				Kind:      kind,
				HasLockup: hasLockup,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool("lockup", false, "Mark the strategy as having a withdrawal lockup")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdUpdateAllocation returns the command to change a strategy's target
func CmdUpdateAllocation() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-allocation [index] [target-bps]",
		Short: "Change a strategy's target allocation (manager only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			index, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid index: %v", err)
			}
			targetBps, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid target-bps: %v", err)
			}

			msg := &types.MsgUpdateAllocation{
				Authority: clientCtx.GetFromAddress().String(),
				Index:     index,
				TargetBps: targetBps,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRemoveStrategy returns the command to deactivate a strategy
func CmdRemoveStrategy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-strategy [index]",
		Short: "Deactivate a strategy (manager only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			index, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid index: %v", err)
			}

			msg := &types.MsgRemoveStrategy{
				Authority: clientCtx.GetFromAddress().String(),
				Index:     index,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRebalance returns the command to trigger a rebalance
func CmdRebalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Move capital to match target allocations (manager only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgRebalance{
				Authority: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCompleteWithdrawal returns the command to settle a queued claim
func CmdCompleteWithdrawal() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete-withdrawal [holder] [request-id]",
		Short: "Settle a queued withdrawal once liquidity allows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			requestID, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request-id: %v", err)
			}

			msg := &types.MsgCompleteWithdrawal{
				Caller:    clientCtx.GetFromAddress().String(),
				Holder:    args[0],
				RequestID: requestID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdEmergencyWithdrawAll returns the command to unwind all strategies
func CmdEmergencyWithdrawAll() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency-withdraw-all",
		Short: "Unwind all convertible strategies and pause the vault (manager only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgEmergencyWithdrawAll{
				Authority: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetPaused returns the command to toggle the pause gate
func CmdSetPaused() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-paused [true|false]",
		Short: "Toggle the vault pause gate (manager only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			paused, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid paused flag: %v", err)
			}

			msg := &types.MsgSetPaused{
				Authority: clientCtx.GetFromAddress().String(),
				Paused:    paused,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
