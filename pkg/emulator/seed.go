package emulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/emulator/store"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// Seed is a fixture tree loaded into a device:
//
//	storages:
//	  - name: Internal storage
//	    children:
//	      - name: Music
//	        children:
//	          - name: some_playlist.m3u
//	            content: "song.mp3\n"
//	      - name: big.bin
//	        size: 1048576
type Seed struct {
	Storages []SeedNode `yaml:"storages"`
}

// SeedNode is one object of a Seed.
//
// Type is a content type name such as "Folder" or "Audio". When empty, a
// node with children, or without content and size, is a folder; any other
// node is a file typed by its extension. Size without Content fills the
// file with a repeating byte pattern.
type SeedNode struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type,omitempty"`
	Content  string     `yaml:"content,omitempty"`
	Size     int64      `yaml:"size,omitempty"`
	Hidden   bool       `yaml:"hidden,omitempty"`
	Children []SeedNode `yaml:"children,omitempty"`
}

// ParseSeed decodes a YAML seed. Unknown fields are rejected.
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

func (n *SeedNode) contentType() (mtp.ContentType, error) {
	if n.Type != "" {
		ct, ok := mtp.ParseContentType(n.Type)
		if !ok {
			return mtp.ContentTypeUnknown, fmt.Errorf("unknown content type %q for %s", n.Type, n.Name)
		}
		return ct, nil
	}
	if len(n.Children) > 0 || (n.Content == "" && n.Size == 0) {
		return mtp.ContentTypeFolder, nil
	}
	return InferContentType(n.Name), nil
}

func (n *SeedNode) data() []byte {
	if n.Content != "" || n.Size <= 0 {
		return []byte(n.Content)
	}
	pattern := []byte("0123456789abcdef")
	data := bytes.Repeat(pattern, int(n.Size)/len(pattern)+1)
	return data[:n.Size]
}

// ApplySeed adds the seed tree to the device. Storages are matched by name
// and created when missing; everything below them is added as new objects.
func (d *Device) ApplySeed(ctx context.Context, seed *Seed) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sn := range seed.Storages {
		if strings.TrimSpace(sn.Name) == "" {
			return errors.New("seed storage without a name")
		}
		storageID, err := d.storageByName(ctx, sn.Name)
		if err != nil {
			return err
		}
		if storageID == "" {
			rec, err := d.addStorage(ctx, sn.Name)
			if err != nil {
				return err
			}
			storageID = rec.ID
		}
		for i := range sn.Children {
			if err := d.seedNode(ctx, storageID, &sn.Children[i]); err != nil {
				return err
			}
		}
	}
	logger.DebugCtx(ctx, "Emulated device seeded", logger.KeyDeviceID, d.id, "storages", len(seed.Storages))
	return nil
}

func (d *Device) storageByName(ctx context.Context, name string) (string, error) {
	ids, err := d.objects.Children(ctx, mtp.RootObjectID)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		rec, err := d.objects.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if rec.Name == name && rec.ContentType == mtp.ContentTypeFunctionalObject.GUID() {
			return id, nil
		}
	}
	return "", nil
}

func (d *Device) seedNode(ctx context.Context, parentID string, n *SeedNode) error {
	if n.Name == "" {
		return fmt.Errorf("seed object under %s without a name", parentID)
	}
	ct, err := n.contentType()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rec := &store.Record{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		Name:        n.Name,
		ContentType: ct.GUID(),
		Hidden:      n.Hidden,
		Created:     now,
		Modified:    now,
	}
	if ct.IsFileLike() {
		if len(n.Children) > 0 {
			return fmt.Errorf("seed file %s cannot have children", n.Name)
		}
		data := n.data()
		rec.Size = uint64(len(data))
		rec.OriginalFileName = n.Name
		if err := d.blobs.Put(ctx, rec.ID, data); err != nil {
			return err
		}
	}
	if err := d.objects.Put(ctx, rec); err != nil {
		return err
	}
	for i := range n.Children {
		if err := d.seedNode(ctx, rec.ID, &n.Children[i]); err != nil {
			return err
		}
	}
	return nil
}
