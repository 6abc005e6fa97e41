package models

import "time"

// Event kinds written to the event log.
const (
	EventNew         = "NEW"
	EventLost        = "LOST"
	EventObservation = "OBSERVATION"
)

// Sighting is one observation of a device during a scan window
type Sighting struct {
	MAC        string    `json:"mac"`
	Name       string    `json:"name"`
	AddrType   string    `json:"address_type"`
	RSSI       int       `json:"rssi_dBm"`
	ObservedAt time.Time `json:"observed_at"`
}

// DeviceState is the presence state of a tracked device
type DeviceState int

const (
	StatePresent DeviceState = iota
	StateAbsent
)

// DeviceRecord represents one currently tracked device
type DeviceRecord struct {
	MAC       string      `json:"mac"`
	Name      string      `json:"name"`
	AddrType  string      `json:"address_type"`
	RSSI      int         `json:"rssi_dBm"`
	FirstSeen time.Time   `json:"first_seen"`
	LastSeen  time.Time   `json:"last_seen"`
	State     DeviceState `json:"-"`
	Info      *OUIEntry   `json:"info,omitempty"`
}

// Event is a presence change, immutable once constructed
type Event struct {
	Kind      string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	MAC       string    `json:"mac"`
	Name      string    `json:"name"`
	RSSI      int       `json:"rssi_dBm"`
}

// OUIEntry represents MAC address vendor information
type OUIEntry struct {
	OUI         string `json:"oui"`
	Private     bool   `json:"isPrivate"`
	Company     string `json:"companyName"`
	Address     string `json:"companyAddress"`
	CountryCode string `json:"countryCode"`
	BlockSize   string `json:"assignmentBlockSize"`
	Created     string `json:"dateCreated"`
	Updated     string `json:"dateUpdated"`
}

// NameEntry represents a device-names file entry
type NameEntry struct {
	MAC   string   `json:"mac"`
	Name  string   `json:"name"`
	Alias []string `json:"alias"`
}
