package model

import "fmt"

// Account is one Exchange ActiveSync login and its hierarchy sync state.
type Account struct {
	ID              int64    `json:"id" db:"id"`
	Host            string   `json:"host" db:"host"`
	UseSSL          bool     `json:"use_ssl" db:"use_ssl"`
	TrustAllCerts   bool     `json:"trust_all_certs" db:"trust_all_certs"`
	User            string   `json:"user" db:"user_name"`
	Email           string   `json:"email" db:"email"`
	DeviceID        string   `json:"device_id" db:"device_id"`
	DeviceType      string   `json:"device_type" db:"device_type"`
	ProtocolVersion string   `json:"protocol_version" db:"protocol_version"`
	SyncKey         string   `json:"sync_key" db:"sync_key"`
	Lookback        Lookback `json:"lookback" db:"lookback"`
}

// InitialSyncKey marks a collection or hierarchy the server has never
// synced with this device.
const InitialSyncKey = "0"

// Lookback is how far back mail is synced.
type Lookback int

const (
	LookbackAll Lookback = iota
	Lookback1Day
	Lookback3Days
	Lookback1Week
	Lookback2Weeks
	Lookback1Month
)

var lookbackNames = map[string]Lookback{
	"all": LookbackAll,
	"1d":  Lookback1Day,
	"3d":  Lookback3Days,
	"1w":  Lookback1Week,
	"2w":  Lookback2Weeks,
	"1m":  Lookback1Month,
}

// ParseLookback parses the configuration spelling of a lookback window:
// all, 1d, 3d, 1w, 2w or 1m.
func ParseLookback(s string) (Lookback, error) {
	if s == "" {
		return LookbackAll, nil
	}
	l, ok := lookbackNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown lookback %q (want all, 1d, 3d, 1w, 2w or 1m)", s)
	}
	return l, nil
}

// FilterType returns the Sync FilterType value for l.
func (l Lookback) FilterType() string {
	switch l {
	case Lookback1Day:
		return "1"
	case Lookback3Days:
		return "2"
	case Lookback1Week:
		return "3"
	case Lookback2Weeks:
		return "4"
	case Lookback1Month:
		return "5"
	default:
		return "0"
	}
}
