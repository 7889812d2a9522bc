package protocol

import (
	"strconv"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// Ping status values.
const (
	PingStatusExpired           = 1
	PingStatusChanges           = 2
	PingStatusMissingParameters = 3
	PingStatusSyntaxError       = 4
	PingStatusBadHeartbeat      = 5
	PingStatusTooManyFolders    = 6
	PingStatusFolderSyncNeeded  = 7
	PingStatusServerError       = 8
)

// PingFolder is one collection watched by Ping.
type PingFolder struct {
	ID    string
	Class string
}

// PingResult is a decoded Ping response.
type PingResult struct {
	Status int

	// Folders lists the collections with changes (status 2).
	Folders []string

	// HeartbeatInterval is the server's suggested interval (status 5).
	HeartbeatInterval int

	// MaxFolders is the server's folder limit (status 6).
	MaxFolders int
}

// BuildPing encodes a Ping request for folders with the given heartbeat
// in seconds.
func BuildPing(heartbeat int, folders []PingFolder) ([]byte, error) {
	e := wbxml.NewDocument()
	e.Start(tags.PingPing).
		Data(tags.PingHeartbeatInterval, strconv.Itoa(heartbeat)).
		Start(tags.PingFolders)
	for _, f := range folders {
		e.Start(tags.PingFolder).
			Data(tags.PingID, f.ID).
			Data(tags.PingClass, f.Class).
			End()
	}
	e.End().End()
	return e.Finish()
}

// ParsePing decodes a Ping response.
func ParsePing(body []byte) (*PingResult, error) {
	d, err := openDocument(CmdPing, body, tags.PingPing)
	if err != nil {
		return nil, err
	}
	res := &PingResult{}
	if err := parsePing(d, res); err != nil {
		return nil, easerr.Classify(CmdPing, err)
	}
	return res, nil
}

func parsePing(d *wbxml.Decoder, res *PingResult) error {
	for {
		tag, ok, err := d.NextTag(tags.PingPing)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.PingStatus:
			res.Status, err = d.ValueInt()
		case tags.PingHeartbeatInterval:
			res.HeartbeatInterval, err = d.ValueInt()
		case tags.PingMaxFolders:
			res.MaxFolders, err = d.ValueInt()
		case tags.PingFolders:
			err = parsePingFolders(d, res)
		default:
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
}

func parsePingFolders(d *wbxml.Decoder, res *PingResult) error {
	for {
		tag, ok, err := d.NextTag(tags.PingFolders)
		if err != nil || !ok {
			return err
		}
		if tag != tags.PingFolder {
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}
		id, err := d.ValueString()
		if err != nil {
			return err
		}
		res.Folders = append(res.Folders, id)
	}
}
