package server

import (
	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
)

// fitAdvertisingPayload packs uuids after the flags field, one field of 2+len bytes each.
// Packing stops at the first uuid that does not fit; it and every later uuid are dropped.
func fitAdvertisingPayload(uuids []util.UUID, max int) models.AdvertisingResult {
	res := models.AdvertisingResult{Advertised: []util.UUID{}}
	used := util.AdvertisingFlagsLen
	for i, u := range uuids {
		cost := 2 + u.WireLen()
		if used+cost > max {
			res.Dropped = append([]util.UUID{}, uuids[i:]...)
			res.Warning = errors.Wrapf(models.ErrPayloadTruncated, "%d of %d service uuids do not fit in %d bytes", len(res.Dropped), len(uuids), max)
			break
		}
		used += cost
		res.Advertised = append(res.Advertised, u)
	}
	return res
}
