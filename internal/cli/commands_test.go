package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/config"
	"github.com/roach88/airsync/internal/credential"
	"github.com/roach88/airsync/internal/harness"
	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/store"
)

const testUser = "jane@example.com"

// cliEnv is a config file pointing at a scripted server, with an
// in-memory keyring.
type cliEnv struct {
	srv     *harness.Server
	dir     string
	cfgPath string
	creds   *credential.Store
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("AIRSYNC_PASSWORD", "")

	srv := harness.NewServer(harness.WithVersions("2.5,12.0,12.1"))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`host: %s
user: %s
ssl: false
data_dir: %s
timeouts:
  connect: 2s
  command: 5s
  send: 5s
  attachment: 5s
`, srv.Host(), testUser, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	return &cliEnv{
		srv:     srv,
		dir:     dir,
		cfgPath: cfgPath,
		creds:   credential.New(keyring.NewArrayKeyring(nil)),
	}
}

// run executes one command line and returns its stdout.
func (e *cliEnv) run(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{Credentials: e.creds}
	cmd := newRootCommand(opts)
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

// login creates the account without contacting the server.
func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	_, err := e.run(t, context.Background(), "secret\n", "login", "--password-stdin", "--no-verify")
	require.NoError(t, err)
}

// withStore opens the CLI's database for inspection.
func (e *cliEnv) withStore(t *testing.T, fn func(st *store.Store, acct *model.Account)) {
	t.Helper()
	st, err := store.Open(filepath.Join(e.dir, "data", "airsync.db"))
	require.NoError(t, err)
	defer st.Close()
	acct, err := st.AccountByLogin(context.Background(), e.srv.Host(), testUser)
	require.NoError(t, err)
	fn(st, acct)
}

func (e *cliEnv) addFolders(t *testing.T, folders ...model.Mailbox) {
	t.Helper()
	e.withStore(t, func(st *store.Store, acct *model.Account) {
		for i := range folders {
			folders[i].SyncInterval = model.DefaultSyncInterval(folders[i].Type)
		}
		require.NoError(t, st.ApplyFolderBatch(context.Background(), acct.ID,
			model.FolderBatch{Added: folders, SyncKey: "1"}))
	})
}

func cliContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func folderSyncWithInbox() harness.Reply {
	return harness.Reply{Command: "FolderSync", WBXML: `FolderHierarchy:FolderSync
  FolderHierarchy:Status 1
  FolderHierarchy:SyncKey 1
  FolderHierarchy:Changes
    FolderHierarchy:Count 2
    FolderHierarchy:Add
      FolderHierarchy:ServerId 5
      FolderHierarchy:ParentId 0
      FolderHierarchy:DisplayName Inbox
      FolderHierarchy:Type 2
    FolderHierarchy:Add
      FolderHierarchy:ServerId 9
      FolderHierarchy:ParentId 0
      FolderHierarchy:DisplayName Archive
      FolderHierarchy:Type 12
`}
}

func inboxSync(key, commands string) harness.Reply {
	return harness.Reply{Command: "Sync", WBXML: `AirSync:Sync
  AirSync:Collections
    AirSync:Collection
      AirSync:Class Email
      AirSync:SyncKey ` + key + `
      AirSync:CollectionId 5
      AirSync:Status 1
` + commands}
}

func TestLogin(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, cliContext(t), "secret\n", "login", "--password-stdin", "--lookback", "1w")
	require.NoError(t, err)
	assert.Contains(t, out, "Created account")
	assert.Contains(t, out, "protocol 12.1")

	reqs := env.srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "OPTIONS", reqs[0].Method)
	assert.Equal(t, testUser, reqs[0].User)

	pw, err := env.creds.Get(testUser, env.srv.Host())
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	cfg, err := config.Load(env.cfgPath)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DeviceID)
	assert.Equal(t, "12.1", cfg.ProtocolVersion)
	assert.Equal(t, "1w", cfg.Lookback)
	assert.Empty(t, cfg.Password)
	data, err := os.ReadFile(env.cfgPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	env.withStore(t, func(_ *store.Store, acct *model.Account) {
		assert.Equal(t, cfg.DeviceID, acct.DeviceID)
		assert.Equal(t, "12.1", acct.ProtocolVersion)
		assert.Equal(t, model.Lookback1Week, acct.Lookback)
		assert.Equal(t, testUser, acct.Email)
		assert.Equal(t, model.InitialSyncKey, acct.SyncKey)
	})

	// A second login keeps the account and its device id.
	out, err = env.run(t, cliContext(t), "changed\n", "--format", "json", "login", "--password-stdin", "--no-verify")
	require.NoError(t, err)
	var resp struct {
		Status string      `json:"status"`
		Data   LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Data.Created)
	assert.Equal(t, cfg.DeviceID, resp.Data.DeviceID)
	assert.Len(t, env.srv.Requests(), 1, "--no-verify stays offline")

	pw, err = env.creds.Get(testUser, env.srv.Host())
	require.NoError(t, err)
	assert.Equal(t, "changed", pw)
}

func TestLogin_Failures(t *testing.T) {
	t.Run("no password", func(t *testing.T) {
		env := newCLIEnv(t)
		_, err := env.run(t, cliContext(t), "", "login")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "no password")
	})

	t.Run("password from environment", func(t *testing.T) {
		env := newCLIEnv(t)
		t.Setenv("AIRSYNC_PASSWORD", "from-env")
		_, err := env.run(t, cliContext(t), "", "login", "--no-verify")
		require.NoError(t, err)
		pw, err := env.creds.Get(testUser, env.srv.Host())
		require.NoError(t, err)
		assert.Equal(t, "from-env", pw)
	})

	t.Run("bad lookback", func(t *testing.T) {
		env := newCLIEnv(t)
		_, err := env.run(t, cliContext(t), "secret\n", "login", "--password-stdin", "--lookback", "5y")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("server unreachable", func(t *testing.T) {
		env := newCLIEnv(t)
		env.srv.Close()
		_, err := env.run(t, cliContext(t), "secret\n", "login", "--password-stdin")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "TRANSIENT_IO", ErrorCode(err))

		_, err = env.creds.Get(testUser, env.srv.Host())
		assert.ErrorIs(t, err, credential.ErrNotFound, "nothing saved on failure")
	})
}

func TestSession_Errors(t *testing.T) {
	t.Run("no account", func(t *testing.T) {
		env := newCLIEnv(t)
		_, err := env.run(t, cliContext(t), "", "versions")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "run airsync login")
	})

	t.Run("no password", func(t *testing.T) {
		env := newCLIEnv(t)
		env.login(t)
		require.NoError(t, env.creds.Delete(testUser, env.srv.Host()))

		_, err := env.run(t, cliContext(t), "", "versions")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})

	t.Run("incomplete config", func(t *testing.T) {
		env := newCLIEnv(t)
		require.NoError(t, os.WriteFile(env.cfgPath, []byte("ssl: false\n"), 0o600))
		_, err := env.run(t, cliContext(t), "", "folders")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "host, user")
	})
}

func TestVersions(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	out, err := env.run(t, cliContext(t), "", "versions")
	require.NoError(t, err)
	assert.Contains(t, out, "Server versions: 2.5, 12.0, 12.1")
	assert.Contains(t, out, "Selected: 12.1")
}

func TestFolders(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.srv.Script(folderSyncWithInbox())

	out, err := env.run(t, cliContext(t), "", "folders")
	require.NoError(t, err)
	assert.Contains(t, out, "Inbox")
	assert.Contains(t, out, "Archive")
	assert.Empty(t, env.srv.Unexpected())

	reqs := env.srv.RequestsFor("FolderSync")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Dump, "FolderHierarchy:SyncKey 0")
	assert.Equal(t, "12.1", reqs[0].ProtocolVersion)

	out, err = env.run(t, cliContext(t), "", "--format", "json", "folders", "--offline")
	require.NoError(t, err)
	var resp struct {
		Data []FolderInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, FolderInfo{ServerID: "5", Name: "Inbox", Type: "inbox", Push: true, SyncKey: "0"}, resp.Data[0])
	assert.Equal(t, "mail", resp.Data[1].Type)
	assert.False(t, resp.Data[1].Push)
	assert.Len(t, env.srv.RequestsFor("FolderSync"), 1, "--offline sends nothing")
}

func TestFolders_AuthFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.srv.Script(harness.Reply{Command: "FolderSync", Status: 401})

	_, err := env.run(t, cliContext(t), "", "folders")
	require.Error(t, err)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestSyncOnce(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.srv.Script(
		folderSyncWithInbox(),
		inboxSync("1", ""),
		inboxSync("2", `      AirSync:Commands
        AirSync:Add
          AirSync:ServerId 5:1
          AirSync:ApplicationData
            Email:From bob@example.com
            Email:Subject Hi
            Email:DateReceived 2009-07-15T10:05:12.345Z
            Email:Read 0
            Email:Body hello
`),
	)

	out, err := env.run(t, cliContext(t), "", "sync", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, ": success")
	assert.NotContains(t, out, "in_progress", "progress only shows with --verbose")
	assert.Empty(t, env.srv.Unexpected())
	assert.Len(t, env.srv.RequestsFor("Sync"), 2)

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		ctx := context.Background()
		mb, err := st.MailboxByServerID(ctx, acct.ID, "5")
		require.NoError(t, err)
		assert.Equal(t, "2", mb.SyncKey)
		msgs, err := st.Messages(ctx, mb.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "Hi", msgs[0].Subject)
	})
}

func TestSync_StopsOnCancel(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.srv.Script(
		folderSyncWithInbox(),
		inboxSync("1", ""),
		inboxSync("2", ""),
		harness.Reply{Command: "Ping", Hang: true},
	)

	ctx, cancel := context.WithCancel(cliContext(t))
	errc := make(chan error, 1)
	go func() {
		_, err := env.run(t, ctx, "", "sync")
		errc <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	// OPTIONS, FolderSync, two Syncs and the parked Ping.
	require.NoError(t, env.srv.WaitRequests(waitCtx, 5))
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sync did not stop")
	}
	assert.Len(t, env.srv.RequestsFor("Ping"), 1)
}

func TestSend(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.addFolders(t, model.Mailbox{DisplayName: "Outbox", ServerID: "6", Type: model.MailboxOutbox})
	env.withStore(t, func(st *store.Store, acct *model.Account) {
		ctx := context.Background()
		ob, err := st.MailboxByServerID(ctx, acct.ID, "6")
		require.NoError(t, err)
		_, err = st.AddMessage(ctx, model.Message{
			AccountID: acct.ID,
			MailboxID: ob.ID,
			Subject:   "lunch",
			To:        "bob@example.com",
			Text:      "noon?",
		})
		require.NoError(t, err)
	})
	env.srv.Script(harness.Reply{Command: "SendMail"})

	out, err := env.run(t, cliContext(t), "", "send")
	require.NoError(t, err)
	assert.Contains(t, out, "success (lunch)")

	reqs := env.srv.RequestsFor("SendMail")
	require.Len(t, reqs, 1)
	assert.Equal(t, "T", reqs[0].Param("SaveInSent"))
	assert.Contains(t, string(reqs[0].Body), "Subject: lunch")

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		pending, err := st.OutboxMessages(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

// seedAttachment stores an inbox message with one attachment and returns
// the attachment id.
func seedAttachment(t *testing.T, env *cliEnv) int64 {
	t.Helper()
	env.addFolders(t, model.Mailbox{DisplayName: "Inbox", ServerID: "5", Type: model.MailboxInbox})
	var attID int64
	env.withStore(t, func(st *store.Store, acct *model.Account) {
		ctx := context.Background()
		mb, err := st.MailboxByServerID(ctx, acct.ID, "5")
		require.NoError(t, err)
		msgID, err := st.AddMessage(ctx, model.Message{
			AccountID: acct.ID,
			MailboxID: mb.ID,
			ServerID:  "5:1",
			Subject:   "report",
			Attachments: []model.Attachment{
				{FileName: "report.pdf", MimeType: "application/pdf", Size: 100, Location: "5:1:0"},
			},
		})
		require.NoError(t, err)
		atts, err := st.Attachments(ctx, msgID)
		require.NoError(t, err)
		require.Len(t, atts, 1)
		attID = atts[0].ID
	})
	return attID
}

func TestFetch(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	attID := seedAttachment(t, env)
	env.srv.Script(harness.Reply{Command: "GetAttachment", Size: 100, ContentType: "application/pdf"})

	out, err := env.run(t, cliContext(t), "", "--format", "json", "fetch", strconv.FormatInt(attID, 10))
	require.NoError(t, err)

	// Terminal status events come first, one JSON object per line.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, fmt.Sprintf(`{"kind":"attachment","id":%d,"message_id":1,"status":"success","progress":100}`, attID), lines[0])

	var resp struct {
		Data FetchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.Equal(t, "report.pdf", resp.Data.FileName)
	assert.Equal(t, filepath.Join(env.dir, "data", "attachments"), filepath.Dir(resp.Data.Path))

	content, err := os.ReadFile(resp.Data.Path)
	require.NoError(t, err)
	assert.Equal(t, harness.PatternBytes(100), content)
	assert.Equal(t, "5:1:0", env.srv.RequestsFor("GetAttachment")[0].Param("AttachmentName"))
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		code int
	}{
		{"not a number", "abc", ExitCommandError},
		{"unknown attachment", "999", ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			env.login(t)
			_, err := env.run(t, cliContext(t), "", "fetch", tt.arg)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Empty(t, env.srv.RequestsFor("GetAttachment"))
		})
	}

	t.Run("server refuses", func(t *testing.T) {
		env := newCLIEnv(t)
		env.login(t)
		attID := seedAttachment(t, env)
		env.srv.Script(harness.Reply{Command: "GetAttachment", Status: 500})

		out, err := env.run(t, cliContext(t), "", "fetch", strconv.FormatInt(attID, 10))
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "remote_exception")

		// The directory may not even exist yet.
		entries, _ := os.ReadDir(filepath.Join(env.dir, "data", "attachments"))
		assert.Empty(t, entries)
	})
}

// seedSyncedMessage stores message 5:1 in an Inbox that has synced to
// key 4, next to an empty Archive.
func seedSyncedMessage(t *testing.T, env *cliEnv) int64 {
	t.Helper()
	env.addFolders(t,
		model.Mailbox{DisplayName: "Inbox", ServerID: "5", Type: model.MailboxInbox},
		model.Mailbox{DisplayName: "Archive", ServerID: "9", Type: model.MailboxMail},
	)
	var msgID int64
	env.withStore(t, func(st *store.Store, acct *model.Account) {
		ctx := context.Background()
		mb, err := st.MailboxByServerID(ctx, acct.ID, "5")
		require.NoError(t, err)
		require.NoError(t, st.ApplyMessageBatch(ctx, model.MessageBatch{
			MailboxID: mb.ID,
			SyncKey:   "4",
			Added:     []model.Message{{ServerID: "5:1", Subject: "hello"}},
		}))
		msgs, err := st.Messages(ctx, mb.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		msgID = msgs[0].ID
	})
	return msgID
}

func pendingChanges(t *testing.T, env *cliEnv) []model.PendingChange {
	t.Helper()
	var changes []model.PendingChange
	env.withStore(t, func(st *store.Store, acct *model.Account) {
		mb, err := st.MailboxByServerID(context.Background(), acct.ID, "5")
		require.NoError(t, err)
		changes, err = st.PendingChanges(context.Background(), mb.ID)
		require.NoError(t, err)
	})
	return changes
}

func TestMarkRead(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	msgID := seedSyncedMessage(t, env)
	env.srv.Script(inboxSync("5", ""))

	out, err := env.run(t, cliContext(t), "", "mark-read", strconv.FormatInt(msgID, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "marked read")

	reqs := env.srv.RequestsFor("Sync")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Dump, "AirSync:SyncKey 4")
	assert.Contains(t, reqs[0].Dump, "AirSync:Change")
	assert.Contains(t, reqs[0].Dump, "Email:Read 1")
	assert.Empty(t, pendingChanges(t, env))

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		msg, err := st.Message(context.Background(), msgID)
		require.NoError(t, err)
		assert.True(t, msg.FlagRead)
		mb, err := st.Mailbox(context.Background(), msg.MailboxID)
		require.NoError(t, err)
		assert.Equal(t, "5", mb.SyncKey)
	})
}

func TestMarkRead_Local(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	msgID := seedSyncedMessage(t, env)

	out, err := env.run(t, cliContext(t), "", "mark-read", "--unread", "--local", strconv.FormatInt(msgID, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "marked unread")
	assert.Contains(t, out, "next sync")
	assert.Empty(t, env.srv.Requests())

	changes := pendingChanges(t, env)
	require.Len(t, changes, 1)
	assert.Equal(t, model.ChangeRead, changes[0].Kind)
	assert.False(t, changes[0].FlagRead)
}

func TestDelete(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	msgID := seedSyncedMessage(t, env)
	env.srv.Script(inboxSync("5", ""))

	_, err := env.run(t, cliContext(t), "", "delete", strconv.FormatInt(msgID, 10))
	require.NoError(t, err)

	reqs := env.srv.RequestsFor("Sync")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Dump, "AirSync:Delete")
	assert.Empty(t, pendingChanges(t, env))

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		_, err := st.Message(context.Background(), msgID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestMove(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	msgID := seedSyncedMessage(t, env)
	env.srv.Script(harness.Reply{Command: "MoveItems", WBXML: `Move:MoveItems
  Move:Response
    Move:SrcMsgId 5:1
    Move:Status 3
    Move:DstMsgId 9:7
`})

	out, err := env.run(t, cliContext(t), "", "--format", "json", "move", strconv.FormatInt(msgID, 10), "9")
	require.NoError(t, err)

	var resp struct {
		Data MessageResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "9", resp.Data.Mailbox)
	assert.Equal(t, "moved", resp.Data.Action)

	reqs := env.srv.RequestsFor("MoveItems")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Dump, "Move:DstFldId 9")

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		msg, err := st.Message(context.Background(), msgID)
		require.NoError(t, err)
		assert.Equal(t, "9:7", msg.ServerID)
	})
}

func TestMove_ByRole(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	msgID := seedSyncedMessage(t, env)
	env.addFolders(t, model.Mailbox{DisplayName: "Deleted Items", ServerID: "8", Type: model.MailboxTrash})
	env.srv.Script(harness.Reply{Command: "MoveItems", WBXML: `Move:MoveItems
  Move:Response
    Move:SrcMsgId 5:1
    Move:Status 3
    Move:DstMsgId 8:3
`})

	out, err := env.run(t, cliContext(t), "", "move", strconv.FormatInt(msgID, 10), "trash")
	require.NoError(t, err)
	assert.Contains(t, out, "moved (mailbox 8)")

	reqs := env.srv.RequestsFor("MoveItems")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Dump, "Move:DstFldId 8")
}

func TestPush(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	seedSyncedMessage(t, env)

	out, err := env.run(t, cliContext(t), "", "--format", "json", "push", "9")
	require.NoError(t, err)
	var resp struct {
		Data []FolderInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Archive", resp.Data[0].Name)
	assert.True(t, resp.Data[0].Push)

	_, err = env.run(t, cliContext(t), "", "push", "--off", "inbox")
	require.NoError(t, err)
	assert.Empty(t, env.srv.Requests())

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		ctx := context.Background()
		inbox, err := st.MailboxByServerID(ctx, acct.ID, "5")
		require.NoError(t, err)
		assert.False(t, inbox.IsPush())
		archive, err := st.MailboxByServerID(ctx, acct.ID, "9")
		require.NoError(t, err)
		assert.True(t, archive.IsPush())
	})

	_, err = env.run(t, cliContext(t), "", "push", "calendar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mailbox "calendar"`)
}

func TestMessageCommands_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"not a number", []string{"mark-read", "abc"}, "invalid message id"},
		{"unknown message", []string{"delete", "999"}, "unknown message 999"},
		{"unknown mailbox", []string{"move", "1", "42"}, `unknown mailbox "42"`},
		{"same mailbox", []string{"move", "1", "5"}, "already in mailbox 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			env.login(t)
			require.Equal(t, int64(1), seedSyncedMessage(t, env))

			_, err := env.run(t, cliContext(t), "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, env.srv.Requests())
		})
	}
}

func TestEstimate(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.addFolders(t, model.Mailbox{DisplayName: "Inbox", ServerID: "5", Type: model.MailboxInbox})

	_, err := env.run(t, cliContext(t), "", "estimate", "5")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "has not been synced")

	_, err = env.run(t, cliContext(t), "", "estimate", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mailbox "42"`)

	env.withStore(t, func(st *store.Store, acct *model.Account) {
		mb, err := st.MailboxByServerID(context.Background(), acct.ID, "5")
		require.NoError(t, err)
		require.NoError(t, st.ApplyMessageBatch(context.Background(), model.MessageBatch{MailboxID: mb.ID, SyncKey: "7"}))
	})
	env.srv.Script(harness.Reply{Command: "GetItemEstimate", WBXML: `GetItemEstimate:GetItemEstimate
  GetItemEstimate:Response
    GetItemEstimate:Status 1
    GetItemEstimate:Collection
      GetItemEstimate:Class Email
      GetItemEstimate:CollectionId 5
      GetItemEstimate:Estimate 17
`})

	out, err := env.run(t, cliContext(t), "", "estimate", "5")
	require.NoError(t, err)
	assert.Equal(t, "5: 17 pending\n", out)
	reqs := env.srv.RequestsFor("GetItemEstimate")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Dump, "AirSync:SyncKey 7")
}

func TestDecode(t *testing.T) {
	const text = `FolderHierarchy:FolderSync
  FolderHierarchy:Status 1
  FolderHierarchy:SyncKey 2`
	path := filepath.Join(t.TempDir(), "response.wbxml")
	require.NoError(t, os.WriteFile(path, harness.MustCompile(text), 0o600))

	env := newCLIEnv(t)
	out, err := env.run(t, cliContext(t), "", "decode", path)
	require.NoError(t, err)
	assert.Equal(t, text+"\n", out)

	out, err = env.run(t, cliContext(t), string(harness.MustCompile(text)), "decode", "-")
	require.NoError(t, err)
	assert.Equal(t, text+"\n", out)

	require.NoError(t, os.WriteFile(path, []byte{0x03, 0x01}, 0o600))
	_, err = env.run(t, cliContext(t), "", "decode", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
