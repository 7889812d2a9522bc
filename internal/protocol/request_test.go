package protocol

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/airsync/internal/harness"
	"github.com/roach88/airsync/internal/model"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestBuildFolderSync(t *testing.T) {
	body, err := BuildFolderSync("0")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "foldersync_initial", []byte(harness.MustDump(body)))
}

func TestBuildSync_InitialKey(t *testing.T) {
	body, err := BuildSync(SyncRequest{
		Class:        "Email",
		SyncKey:      "0",
		CollectionID: "5",
		FilterType:   "3",
		WindowSize:   10,
		Changes: []model.PendingChange{
			{ServerID: "5:1", Kind: model.ChangeRead, FlagRead: true},
		},
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "sync_initial", []byte(harness.MustDump(body)))
}

func TestBuildSync_Steady(t *testing.T) {
	body, err := BuildSync(SyncRequest{
		Class:        "Email",
		SyncKey:      "abc",
		CollectionID: "5",
		FilterType:   model.Lookback1Week.FilterType(),
		Changes: []model.PendingChange{
			{ServerID: "5:1", Kind: model.ChangeRead, FlagRead: true},
			{ServerID: "5:2", Kind: model.ChangeDelete},
		},
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "sync_steady", []byte(harness.MustDump(body)))
}

func TestBuildSync_InitialKeyNeverCarriesChangeRequest(t *testing.T) {
	lookbacks := []model.Lookback{
		model.LookbackAll, model.Lookback1Day, model.Lookback3Days,
		model.Lookback1Week, model.Lookback2Weeks, model.Lookback1Month,
	}
	for _, lb := range lookbacks {
		for _, window := range []int{0, 1, 25, 100} {
			body, err := BuildSync(SyncRequest{
				Class:        "Email",
				SyncKey:      model.InitialSyncKey,
				CollectionID: "7",
				FilterType:   lb.FilterType(),
				WindowSize:   window,
				Changes:      []model.PendingChange{{ServerID: "7:1", Kind: model.ChangeDelete}},
			})
			require.NoError(t, err)
			dump := harness.MustDump(body)
			for _, forbidden := range []string{"GetChanges", "WindowSize", "Options", "Commands", "DeletesAsMoves"} {
				assert.NotContains(t, dump, forbidden)
			}
			assert.Contains(t, dump, "AirSync:SyncKey 0\n")
		}
	}
}

func TestBuildSync_DefaultsWindowAndFilter(t *testing.T) {
	body, err := BuildSync(SyncRequest{Class: "Email", SyncKey: "k", CollectionID: "5"})
	require.NoError(t, err)
	dump := harness.MustDump(body)
	assert.Contains(t, dump, "AirSync:WindowSize 25\n")
	assert.Contains(t, dump, "AirSync:FilterType 0\n")
	assert.NotContains(t, dump, "Commands")
}

func TestBuildPing(t *testing.T) {
	body, err := BuildPing(480, []PingFolder{{ID: "5", Class: "Email"}, {ID: "8", Class: "Calendar"}})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "ping", []byte(harness.MustDump(body)))
}

func TestBuildMoveItems(t *testing.T) {
	body, err := BuildMoveItems([]Move{{SrcMsgID: "5:12", SrcFldID: "5", DstFldID: "9"}})
	require.NoError(t, err)
	want := strings.Join([]string{
		"Move:MoveItems",
		"  Move:Move",
		"    Move:SrcMsgId 5:12",
		"    Move:SrcFldId 5",
		"    Move:DstFldId 9",
		"",
	}, "\n")
	assert.Equal(t, want, harness.MustDump(body))
}

func TestBuildGetItemEstimate(t *testing.T) {
	body, err := BuildGetItemEstimate([]EstimateRequest{
		{Class: "Email", CollectionID: "5", FilterType: "3", SyncKey: "abc"},
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "getitemestimate", []byte(harness.MustDump(body)))
}
