package protocol

import (
	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// MoveItems status values.
const (
	MoveStatusInvalidSource = 1
	MoveStatusInvalidDest   = 2
	MoveStatusSuccess       = 3
	MoveStatusSameFolder    = 4
	MoveStatusServerError   = 5
	MoveStatusLocked        = 7
)

// Move asks the server to move one message between folders.
type Move struct {
	SrcMsgID string
	SrcFldID string
	DstFldID string
}

// MoveResponse reports the outcome of one Move.
type MoveResponse struct {
	SrcMsgID string
	Status   int
	DstMsgID string
}

// BuildMoveItems encodes a MoveItems request.
func BuildMoveItems(moves []Move) ([]byte, error) {
	e := wbxml.NewDocument()
	e.Start(tags.MoveMoveItems)
	for _, m := range moves {
		e.Start(tags.MoveMove).
			Data(tags.MoveSrcMsgID, m.SrcMsgID).
			Data(tags.MoveSrcFldID, m.SrcFldID).
			Data(tags.MoveDstFldID, m.DstFldID).
			End()
	}
	e.End()
	return e.Finish()
}

// ParseMoveItems decodes a MoveItems response.
func ParseMoveItems(body []byte) ([]MoveResponse, error) {
	d, err := openDocument(CmdMoveItems, body, tags.MoveMoveItems)
	if err != nil {
		return nil, err
	}

	var out []MoveResponse
	for {
		tag, ok, err := d.NextTag(tags.MoveMoveItems)
		if err != nil {
			return nil, easerr.Classify(CmdMoveItems, err)
		}
		if !ok {
			return out, nil
		}
		if tag != tags.MoveResponse {
			if err := d.Skip(); err != nil {
				return nil, easerr.Classify(CmdMoveItems, err)
			}
			continue
		}
		r, err := parseMoveResponse(d)
		if err != nil {
			return nil, easerr.Classify(CmdMoveItems, err)
		}
		out = append(out, r)
	}
}

func parseMoveResponse(d *wbxml.Decoder) (MoveResponse, error) {
	var r MoveResponse
	for {
		tag, ok, err := d.NextTag(tags.MoveResponse)
		if err != nil || !ok {
			return r, err
		}
		switch tag {
		case tags.MoveSrcMsgID:
			r.SrcMsgID, err = d.ValueString()
		case tags.MoveStatus:
			r.Status, err = d.ValueInt()
		case tags.MoveDstMsgID:
			r.DstMsgID, err = d.ValueString()
		default:
			err = d.Skip()
		}
		if err != nil {
			return r, err
		}
	}
}
