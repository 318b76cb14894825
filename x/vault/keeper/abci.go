package keeper

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EndBlocker refreshes the valuation snapshot at the end of each block.
// Queued withdrawals are not touched here: settlement happens only through
// explicit CompleteWithdrawal calls, driven by the holder or an external
// operator process.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	blockHeight := ctx.BlockHeight()
	start := time.Now()

	if err := k.RefreshValuation(ctx); err != nil {
		// Valuation failure must not halt the chain; the stale snapshot
		// stands until next block.
		k.logger.Error("Valuation refresh failed", "block", blockHeight, "error", err)
		return nil
	}

	duration := time.Since(start)

	k.logger.Debug("Vault EndBlocker completed",
		"block", blockHeight,
		"total_ms", duration.Milliseconds(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_endblock",
			sdk.NewAttribute("block_height", math.NewInt(blockHeight).String()),
			sdk.NewAttribute("duration_ms", math.NewInt(duration.Milliseconds()).String()),
		),
	)

	return nil
}
