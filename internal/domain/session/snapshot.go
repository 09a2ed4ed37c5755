package session

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// Snapshot is a saved opened view-model layout. Providers are not saved.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Entry is one opened view-model, in the order it was opened within its type
type Entry struct {
	Type        string `json:"type"`
	Operation   string `json:"operation,omitempty"`
	ViewModelID string `json:"view_model_id"`
}

func (e Entry) navigationType() navigation.Type {
	return navigation.NewType(e.Type, navigation.OperationType(e.Operation))
}

// Metadata is the listing form of a Snapshot
type Metadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Entries   int       `json:"entries"`
}

// Metadata summarizes the snapshot
func (s *Snapshot) Metadata() Metadata {
	return Metadata{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt, Entries: len(s.Entries)}
}

// Stats reports session activity
type Stats struct {
	TotalSessions int        `json:"total_sessions"`
	LastSaved     *time.Time `json:"last_saved,omitempty"`
	LastRestored  *time.Time `json:"last_restored,omitempty"`
}

// codec stores snapshots as zstd-compressed JSON. The encoder and decoder
// are safe for concurrent EncodeAll/DecodeAll.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) encode(s *Snapshot) ([]byte, error) {
	data, err := sonic.Marshal(s)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(data, nil), nil
}

func (c *codec) decode(data []byte) (*Snapshot, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var s Snapshot
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidSnapshot)
	}
	return &s, nil
}
