package builder

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/objects"
)

// maxConcurrentProbes bounds the store lookups one status check issues.
const maxConcurrentProbes = 16

// ProbeAssets looks up every asset and reports its status: available when
// the object exists, unavailable when the store answers with any 4xx
// status, and unknown for any other failure.
func ProbeAssets(ctx context.Context, store objects.Store, assets []integrations.AssetReference) []integrations.Status {
	statuses := make([]integrations.Status, len(assets))

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, asset := range assets {
		g.Go(func() error {
			_, err := store.Get(ctx, asset.AssetType, asset.AssetID)
			switch code := errors.StatusCode(err); {
			case err == nil:
				statuses[i] = integrations.StatusAvailable
			case code >= 400 && code < 500:
				statuses[i] = integrations.StatusUnavailable
			default:
				logging.FromContext(ctx).Warn().Err(err).
					Str("type", asset.AssetType).Str("id", asset.AssetID).
					Msg("Asset status probe failed")
				statuses[i] = integrations.StatusUnknown
			}
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// AggregateStatus folds per-asset statuses into an instance status. Any
// unknown status makes the whole unknown; otherwise all unavailable is
// unavailable, all available is available, and any mix is partially
// available. An empty list is unavailable.
func AggregateStatus(statuses []integrations.Status) integrations.Status {
	available, unavailable := 0, 0
	for _, s := range statuses {
		switch s {
		case integrations.StatusAvailable:
			available++
		case integrations.StatusUnavailable:
			unavailable++
		default:
			return integrations.StatusUnknown
		}
	}
	switch {
	case unavailable == len(statuses):
		return integrations.StatusUnavailable
	case available == len(statuses):
		return integrations.StatusAvailable
	}
	return integrations.StatusPartiallyAvailable
}

// GetAssetStatus probes every asset and returns the instance status.
func GetAssetStatus(ctx context.Context, store objects.Store, assets []integrations.AssetReference) integrations.Status {
	return AggregateStatus(ProbeAssets(ctx, store, assets))
}
