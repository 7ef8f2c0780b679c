package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"velo/internal/geom"
	"velo/internal/model"
)

const recordVersion = 1

type checkpointRecord struct {
	Version int           `json:"version"`
	Nodes   []nodeRecord  `json:"nodes"`
	Arrows  []arrowRecord `json:"arrows"`
}

type nodeRecord struct {
	ID      int          `json:"id"`
	Type    string       `json:"type"`
	Left    geom.Val     `json:"left"`
	Bottom  geom.Val     `json:"bottom"`
	Width   geom.Val     `json:"width"`
	Height  geom.Val     `json:"height"`
	Text    string       `json:"text,omitempty"`
	TextPos string       `json:"text_pos"`
	BgColor string       `json:"bg_color"`
	Tags    []string     `json:"tags,omitempty"`
	Z       int          `json:"z"`
	Image   *imageRecord `json:"image,omitempty"`
}

type imageRecord struct {
	ID     uuid.UUID `json:"id"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

type arrowRecord struct {
	ID    int       `json:"id"`
	From  endRecord `json:"from"`
	To    endRecord `json:"to"`
	Style string    `json:"style"`
}

type endRecord struct {
	Node   int    `json:"node"`
	Anchor string `json:"anchor"`
}

// EncodeCheckpoint serializes cp as JSON. Nodes are written in draw order.
func EncodeCheckpoint(cp *model.Checkpoint) ([]byte, error) {
	rec := checkpointRecord{Version: recordVersion}
	for _, n := range cp.Nodes() {
		nr := nodeRecord{
			ID:      n.ID,
			Type:    n.Kind.String(),
			Left:    n.Rect.Left,
			Bottom:  n.Rect.Bottom,
			Width:   n.Rect.Width,
			Height:  n.Rect.Height,
			Text:    n.Text,
			TextPos: n.TextPos.String(),
			BgColor: n.BgColor,
			Tags:    n.Tags,
			Z:       n.Z,
		}
		if n.Image != nil {
			nr.Image = &imageRecord{ID: n.Image.ID, Width: n.Image.Width, Height: n.Image.Height}
		}
		rec.Nodes = append(rec.Nodes, nr)
	}
	for _, a := range cp.Arrows() {
		rec.Arrows = append(rec.Arrows, arrowRecord{
			ID:    a.ID,
			From:  endRecord{Node: a.From.Node, Anchor: a.From.Anchor.String()},
			To:    endRecord{Node: a.To.Node, Anchor: a.To.Anchor.String()},
			Style: a.Style.String(),
		})
	}
	return json.MarshalIndent(rec, "", "  ")
}

// DecodeCheckpoint parses data written by EncodeCheckpoint. Arrows whose
// endpoints are missing are kept; callers drop them with Checkpoint.Prune.
func DecodeCheckpoint(data []byte) (*model.Checkpoint, error) {
	var rec checkpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if rec.Version > recordVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported %d", rec.Version, recordVersion)
	}

	cp := model.NewCheckpoint()
	for _, nr := range rec.Nodes {
		kind, err := model.ParseKind(nr.Type)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", nr.ID, err)
		}
		pos, err := model.ParseTextPos(nr.TextPos)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", nr.ID, err)
		}
		n := model.Node{
			ID:      nr.ID,
			Kind:    kind,
			Text:    nr.Text,
			TextPos: pos,
			BgColor: nr.BgColor,
			Tags:    nr.Tags,
			Z:       nr.Z,
		}
		if n.BgColor == "" {
			n.BgColor = model.DefaultBgColor
		}
		if nr.Image != nil {
			n.Image = &model.ImageRef{ID: nr.Image.ID, Width: nr.Image.Width, Height: nr.Image.Height}
		}
		n.SetRect(geom.Rect{Left: nr.Left, Bottom: nr.Bottom, Width: nr.Width, Height: nr.Height})
		cp.PutNode(n)
	}
	for _, ar := range rec.Arrows {
		style, err := model.ParseArrowStyle(ar.Style)
		if err != nil {
			return nil, fmt.Errorf("arrow %d: %w", ar.ID, err)
		}
		from, ok1 := geom.ParseAnchor(ar.From.Anchor)
		to, ok2 := geom.ParseAnchor(ar.To.Anchor)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("arrow %d: bad anchor", ar.ID)
		}
		cp.PutArrow(model.Arrow{
			ID:    ar.ID,
			From:  model.End{Node: ar.From.Node, Anchor: from},
			To:    model.End{Node: ar.To.Node, Anchor: to},
			Style: style,
		})
	}
	return cp, nil
}
