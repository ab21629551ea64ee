package protocol

// HELLO (peer -> authority)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PeerName        string `json:"peer_name"`
	// CharacterID asks to control an existing character; empty spawns a
	// new one.
	CharacterID string     `json:"character_id,omitempty"`
	Auth        *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (authority -> peer)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	CharacterID     string         `json:"character_id"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Seed       int64 `json:"seed"`
	// Layout constants, mirrored by the peer to stay save compatible.
	BaseGeneralSlots int `json:"base_general_slots"`
	MaxGeneralSlots  int `json:"max_general_slots"`
	BagSlots         int `json:"bag_slots"`
	HotbarSlots      int `json:"hotbar_slots"`
}

type CatalogDigests struct {
	ItemsDigest     string `json:"items_digest"`
	ItemsCount      int    `json:"items_count"`
	RecipesDigest   string `json:"recipes_digest"`
	ResourcesDigest string `json:"resources_digest"`
	VendorsDigest   string `json:"vendors_digest"`
	TuningDigest    string `json:"tuning_digest,omitempty"`
}

// ACK (authority -> peer) answers one CMD by id.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	// Status is the domain status name (e.g. "NO_SPACE").
	Status     string `json:"status,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Remainder  int    `json:"remainder,omitempty"`
	ServerTick uint64 `json:"server_tick,omitempty"`
}
