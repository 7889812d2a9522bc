package protocol

import (
	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// GetItemEstimate status values.
const (
	EstimateStatusSuccess           = 1
	EstimateStatusInvalidCollection = 2
	EstimateStatusNotPrimed         = 3
	EstimateStatusInvalidSyncKey    = 4
)

// EstimateRequest names one collection to estimate.
type EstimateRequest struct {
	Class        string
	CollectionID string
	FilterType   string
	SyncKey      string
}

// Estimate is the server's count of pending changes for a collection.
type Estimate struct {
	Status       int
	CollectionID string
	Count        int
}

// BuildGetItemEstimate encodes a GetItemEstimate request.
func BuildGetItemEstimate(reqs []EstimateRequest) ([]byte, error) {
	e := wbxml.NewDocument()
	e.Start(tags.GIEGetItemEstimate).Start(tags.GIECollections)
	for _, r := range reqs {
		e.Start(tags.GIECollection).
			Data(tags.GIEClass, r.Class).
			Data(tags.GIECollectionID, r.CollectionID).
			Data(tags.SyncFilterType, r.FilterType).
			Data(tags.SyncSyncKey, r.SyncKey).
			End()
	}
	e.End().End()
	return e.Finish()
}

// ParseGetItemEstimate decodes a GetItemEstimate response, one Estimate
// per Response element.
func ParseGetItemEstimate(body []byte) ([]Estimate, error) {
	d, err := openDocument(CmdGetItemEstimate, body, tags.GIEGetItemEstimate)
	if err != nil {
		return nil, err
	}

	var out []Estimate
	for {
		tag, ok, err := d.NextTag(tags.GIEGetItemEstimate)
		if err != nil {
			return nil, easerr.Classify(CmdGetItemEstimate, err)
		}
		if !ok {
			return out, nil
		}
		if tag != tags.GIEResponse {
			if err := d.Skip(); err != nil {
				return nil, easerr.Classify(CmdGetItemEstimate, err)
			}
			continue
		}
		est, err := parseEstimateResponse(d)
		if err != nil {
			return nil, easerr.Classify(CmdGetItemEstimate, err)
		}
		out = append(out, est)
	}
}

func parseEstimateResponse(d *wbxml.Decoder) (Estimate, error) {
	var est Estimate
	for {
		tag, ok, err := d.NextTag(tags.GIEResponse)
		if err != nil || !ok {
			return est, err
		}
		switch tag {
		case tags.GIEStatus:
			est.Status, err = d.ValueInt()
		case tags.GIECollection:
			err = parseEstimateCollection(d, &est)
		default:
			err = d.Skip()
		}
		if err != nil {
			return est, err
		}
	}
}

func parseEstimateCollection(d *wbxml.Decoder, est *Estimate) error {
	for {
		tag, ok, err := d.NextTag(tags.GIECollection)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.GIECollectionID:
			est.CollectionID, err = d.ValueString()
		case tags.GIEEstimate:
			est.Count, err = d.ValueInt()
		default:
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
}
