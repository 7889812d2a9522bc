package protocol

import (
	"strconv"

	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// Sync status values.
const (
	SyncStatusSuccess        = 1
	SyncStatusInvalidSyncKey = 3
)

// DefaultWindowSize is the number of changes requested per Sync round.
const DefaultWindowSize = 25

// truncationAll asks EAS 2.5 servers for whole bodies.
const truncationAll = "7"

// SyncRequest describes one collection to sync.
type SyncRequest struct {
	Class        string
	SyncKey      string
	CollectionID string
	FilterType   string
	WindowSize   int

	// Changes are local edits uploaded with this round. They are only
	// sent once the collection has a sync key.
	Changes []model.PendingChange
}

// BuildSync encodes a Sync request. With the initial sync key only the
// key itself is sent: no change request, window, options or commands.
func BuildSync(req SyncRequest) ([]byte, error) {
	e := wbxml.NewDocument()
	e.Start(tags.SyncSync).
		Start(tags.SyncCollections).
		Start(tags.SyncCollection).
		Data(tags.SyncClass, req.Class).
		Data(tags.SyncSyncKey, req.SyncKey).
		Data(tags.SyncCollectionID, req.CollectionID)

	if req.SyncKey != model.InitialSyncKey {
		window := req.WindowSize
		if window <= 0 {
			window = DefaultWindowSize
		}
		filter := req.FilterType
		if filter == "" {
			filter = model.LookbackAll.FilterType()
		}
		e.Empty(tags.SyncDeletesAsMoves).
			Empty(tags.SyncGetChanges).
			Data(tags.SyncWindowSize, strconv.Itoa(window)).
			Start(tags.SyncOptions).
			Data(tags.SyncFilterType, filter).
			Data(tags.SyncTruncation, truncationAll).
			End()

		if len(req.Changes) > 0 {
			e.Start(tags.SyncCommands)
			for _, c := range req.Changes {
				writeChange(e, c)
			}
			e.End()
		}
	}

	e.End().End().End()
	return e.Finish()
}

func writeChange(e *wbxml.Encoder, c model.PendingChange) {
	switch c.Kind {
	case model.ChangeDelete:
		e.Start(tags.SyncDelete).
			Data(tags.SyncServerID, c.ServerID).
			End()
	case model.ChangeRead:
		read := "0"
		if c.FlagRead {
			read = "1"
		}
		e.Start(tags.SyncChange).
			Data(tags.SyncServerID, c.ServerID).
			Start(tags.SyncApplicationData).
			Data(tags.EmailRead, read).
			End().
			End()
	}
}

// SyncResult is a decoded Sync response for one collection.
type SyncResult struct {
	Status        int
	SyncKey       string
	CollectionID  string
	MoreAvailable bool
	Added         []model.Message
	Changed       []model.MessageChange
	Deleted       []string
}

// Batch returns the result as a store batch for mailboxID.
func (r *SyncResult) Batch(mailboxID int64) model.MessageBatch {
	return model.MessageBatch{
		MailboxID: mailboxID,
		Added:     r.Added,
		Changed:   r.Changed,
		Deleted:   r.Deleted,
		SyncKey:   r.SyncKey,
	}
}

// InvalidSyncKey reports whether the server rejected the sync key.
func (r *SyncResult) InvalidSyncKey() bool {
	return r.Status == SyncStatusInvalidSyncKey
}

// ParseSync decodes a Sync response carrying Email items. A status of 3
// resets the result to the initial key with MoreAvailable set and no
// changes, so the caller starts over from scratch.
func ParseSync(body []byte) (*SyncResult, error) {
	d, err := openDocument(CmdSync, body, tags.SyncSync)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{}
	if err := parseSync(d, res); err != nil {
		return nil, easerr.Classify(CmdSync, err)
	}
	if res.InvalidSyncKey() {
		*res = SyncResult{
			Status:        SyncStatusInvalidSyncKey,
			SyncKey:       model.InitialSyncKey,
			CollectionID:  res.CollectionID,
			MoreAvailable: true,
		}
	}
	return res, nil
}

func parseSync(d *wbxml.Decoder, res *SyncResult) error {
	for {
		tag, ok, err := d.NextTag(tags.SyncSync)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.SyncStatus:
			// Top-level status reports a request-wide failure.
			if res.Status, err = d.ValueInt(); err != nil {
				return err
			}
		case tags.SyncCollections:
			if err := parseCollections(d, res); err != nil {
				return err
			}
		default:
			if err := d.Skip(); err != nil {
				return err
			}
		}
	}
}

func parseCollections(d *wbxml.Decoder, res *SyncResult) error {
	for {
		tag, ok, err := d.NextTag(tags.SyncCollections)
		if err != nil || !ok {
			return err
		}
		if tag != tags.SyncCollection {
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := parseCollection(d, res); err != nil {
			return err
		}
	}
}

func parseCollection(d *wbxml.Decoder, res *SyncResult) error {
	for {
		tag, ok, err := d.NextTag(tags.SyncCollection)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.SyncSyncKey:
			res.SyncKey, err = d.ValueString()
		case tags.SyncCollectionID:
			res.CollectionID, err = d.ValueString()
		case tags.SyncStatus:
			res.Status, err = d.ValueInt()
		case tags.SyncMoreAvailable:
			res.MoreAvailable = true
			err = d.Skip()
		case tags.SyncCommands:
			err = parseCommands(d, res)
		default:
			// Class, Responses to our own changes.
			err = d.Skip()
		}
		if err != nil {
			return err
		}
	}
}

func parseCommands(d *wbxml.Decoder, res *SyncResult) error {
	for {
		tag, ok, err := d.NextTag(tags.SyncCommands)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.SyncAdd:
			msg, err := parseAdd(d)
			if err != nil {
				return err
			}
			res.Added = append(res.Added, msg)
		case tags.SyncChange:
			ch, err := parseChange(d)
			if err != nil {
				return err
			}
			res.Changed = append(res.Changed, ch)
		case tags.SyncDelete, tags.SyncSoftDelete:
			id, err := parseServerIDOnly(d, tag)
			if err != nil {
				return err
			}
			res.Deleted = append(res.Deleted, id)
		default:
			if err := d.Skip(); err != nil {
				return err
			}
		}
	}
}

func parseAdd(d *wbxml.Decoder) (model.Message, error) {
	var msg model.Message
	for {
		tag, ok, err := d.NextTag(tags.SyncAdd)
		if err != nil || !ok {
			return msg, err
		}
		switch tag {
		case tags.SyncServerID:
			msg.ServerID, err = d.ValueString()
		case tags.SyncApplicationData:
			err = parseEmailData(d, &msg)
		default:
			err = d.Skip()
		}
		if err != nil {
			return msg, err
		}
	}
}

func parseChange(d *wbxml.Decoder) (model.MessageChange, error) {
	var ch model.MessageChange
	for {
		tag, ok, err := d.NextTag(tags.SyncChange)
		if err != nil || !ok {
			return ch, err
		}
		switch tag {
		case tags.SyncServerID:
			ch.ServerID, err = d.ValueString()
		case tags.SyncApplicationData:
			err = parseChangeData(d, &ch)
		default:
			err = d.Skip()
		}
		if err != nil {
			return ch, err
		}
	}
}

func parseChangeData(d *wbxml.Decoder, ch *model.MessageChange) error {
	for {
		tag, ok, err := d.NextTag(tags.SyncApplicationData)
		if err != nil || !ok {
			return err
		}
		if tag != tags.EmailRead {
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}
		n, err := d.ValueInt()
		if err != nil {
			return err
		}
		read := n == 1
		ch.FlagRead = &read
	}
}

func parseServerIDOnly(d *wbxml.Decoder, parent tags.Tag) (string, error) {
	var id string
	for {
		tag, ok, err := d.NextTag(parent)
		if err != nil || !ok {
			return id, err
		}
		if tag == tags.SyncServerID {
			if id, err = d.ValueString(); err != nil {
				return "", err
			}
			continue
		}
		if err := d.Skip(); err != nil {
			return "", err
		}
	}
}
