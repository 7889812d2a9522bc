package protocol

import (
	"github.com/roach88/airsync/internal/easerr"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/tags"
	"github.com/roach88/airsync/internal/wbxml"
)

// FolderSync status values.
const (
	FolderStatusSuccess        = 1
	FolderStatusInvalidSyncKey = 9
)

// FolderSyncResult is a decoded FolderSync response. Only folders with a
// recognized type are kept in Added and Updated.
type FolderSyncResult struct {
	Status  int
	SyncKey string
	Added   []model.Mailbox
	Deleted []string
	Updated []model.Mailbox
}

// Batch returns the result as a store batch.
func (r *FolderSyncResult) Batch() model.FolderBatch {
	return model.FolderBatch{
		Added:   r.Added,
		Deleted: r.Deleted,
		Updated: r.Updated,
		SyncKey: r.SyncKey,
	}
}

// BuildFolderSync encodes a FolderSync request for the account sync key.
func BuildFolderSync(syncKey string) ([]byte, error) {
	e := wbxml.NewDocument()
	e.Start(tags.FolderFolderSync).
		Data(tags.FolderSyncKey, syncKey).
		End()
	return e.Finish()
}

// ParseFolderSync decodes a FolderSync response.
func ParseFolderSync(body []byte) (*FolderSyncResult, error) {
	d, err := openDocument(CmdFolderSync, body, tags.FolderFolderSync)
	if err != nil {
		return nil, err
	}

	res := &FolderSyncResult{}
	if err := parseFolderSync(d, res); err != nil {
		return nil, easerr.Classify(CmdFolderSync, err)
	}
	return res, nil
}

func parseFolderSync(d *wbxml.Decoder, res *FolderSyncResult) error {
	for {
		tag, ok, err := d.NextTag(tags.FolderFolderSync)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.FolderStatus:
			if res.Status, err = d.ValueInt(); err != nil {
				return err
			}
		case tags.FolderSyncKey:
			if res.SyncKey, err = d.ValueString(); err != nil {
				return err
			}
		case tags.FolderChanges:
			if err := parseFolderChanges(d, res); err != nil {
				return err
			}
		default:
			if err := d.Skip(); err != nil {
				return err
			}
		}
	}
}

func parseFolderChanges(d *wbxml.Decoder, res *FolderSyncResult) error {
	for {
		tag, ok, err := d.NextTag(tags.FolderChanges)
		if err != nil || !ok {
			return err
		}
		switch tag {
		case tags.FolderAdd:
			mb, keep, err := parseFolder(d, tags.FolderAdd)
			if err != nil {
				return err
			}
			if keep {
				res.Added = append(res.Added, mb)
			}
		case tags.FolderUpdate:
			mb, keep, err := parseFolder(d, tags.FolderUpdate)
			if err != nil {
				return err
			}
			if keep {
				res.Updated = append(res.Updated, mb)
			}
		case tags.FolderDelete:
			id, err := parseFolderDelete(d)
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

// parseFolder reads an Add or Update entry. keep is false for folder
// types this client does not sync.
func parseFolder(d *wbxml.Decoder, parent tags.Tag) (mb model.Mailbox, keep bool, err error) {
	folderType := -1
	for {
		tag, ok, err := d.NextTag(parent)
		if err != nil {
			return mb, false, err
		}
		if !ok {
			break
		}
		switch tag {
		case tags.FolderDisplayName:
			mb.DisplayName, err = d.ValueString()
		case tags.FolderServerID:
			mb.ServerID, err = d.ValueString()
		case tags.FolderParentID:
			mb.ParentServerID, err = d.ValueString()
		case tags.FolderType:
			folderType, err = d.ValueInt()
		default:
			err = d.Skip()
		}
		if err != nil {
			return mb, false, err
		}
	}

	// "0" is the hierarchy root: the folder is top level.
	if mb.ParentServerID == "0" {
		mb.ParentServerID = ""
	}
	t, ok := model.MailboxTypeForFolder(folderType)
	if !ok {
		return mb, false, nil
	}
	mb.Type = t
	mb.SyncKey = model.InitialSyncKey
	mb.SyncInterval = model.DefaultSyncInterval(t)
	return mb, true, nil
}

func parseFolderDelete(d *wbxml.Decoder) (string, error) {
	var id string
	for {
		tag, ok, err := d.NextTag(tags.FolderDelete)
		if err != nil || !ok {
			return id, err
		}
		if tag == tags.FolderServerID {
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
