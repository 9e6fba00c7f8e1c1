package vtcore

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImageFormat identifies the pixel encoding of transmitted image data.
type ImageFormat uint8

const (
	FormatRGB ImageFormat = iota
	FormatRGBA
	FormatPNG
	FormatJPEG
	FormatGIF
)

// Default pixels-per-cell assumed when the host has not reported real cell
// metrics.
const (
	DefaultCellWidth  = 10
	DefaultCellHeight = 20
)

// DecodeError reports a failure while decoding one image transmission. The
// failure is scoped to the named image; the store and every other image stay
// intact.
type DecodeError struct {
	ImageID uint32
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("graphics: image %d: %v", e.ImageID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var errNotGraphics = errors.New("graphics: payload is not a graphics command")

// GraphicsCommand is one parsed APC graphics escape: the control keys plus
// the raw base64 payload that followed the semicolon.
type GraphicsCommand struct {
	Action      byte // 't' transmit, 'T' transmit+display, 'p' display, 'd'/'D' delete
	Format      int  // f: 24 RGB, 32 RGBA, 100 compressed-format; 0 means sniff
	Width       int  // s: source width in pixels
	Height      int  // v: source height in pixels
	ImageID     uint32
	PlacementID uint32
	More        bool // m=1: further chunks follow
	Compression byte // o: 'z' for zlib
	Quiet       int  // q: 1 suppresses OK, 2 suppresses everything
	Medium      byte // t: transmission medium; only 'd' (direct) is supported
	OffsetX     int  // x: pixel offset inside the anchor cell
	OffsetY     int  // y
	CropX       int  // X: source-crop rectangle in pixels
	CropY       int  // Y
	CropW       int  // w
	CropH       int  // h
	Cols        int  // c: display width in cells
	Rows        int  // r: display height in cells
	ZIndex      int  // z
	Placeholder rune // U: placeholder codepoint for virtual placements
	Delete      byte // d: delete specifier

	Payload []byte
}

// ParseGraphicsCommand parses the payload of an APC string that begins with
// 'G' into its control keys and base64 payload. Unknown keys are ignored so
// newer producers keep working; malformed key values fail the whole command. A
// missing or unrecognized action rejects the command.
func ParseGraphicsCommand(payload string) (*GraphicsCommand, error) {
	if len(payload) == 0 || payload[0] != 'G' {
		return nil, errNotGraphics
	}
	control := payload[1:]
	var data string
	if idx := strings.IndexByte(control, ';'); idx >= 0 {
		control, data = control[:idx], control[idx+1:]
	}

	cmd := &GraphicsCommand{}
	for _, pair := range strings.Split(control, ",") {
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("graphics: malformed control pair %q", pair)
		}
		key, val := pair[:eq], pair[eq+1:]
		if err := cmd.setKey(key, val); err != nil {
			return nil, err
		}
	}
	switch cmd.Action {
	case 't', 'T', 'p', 'd', 'D':
	default:
		return nil, fmt.Errorf("graphics: unrecognized action %q", cmd.Action)
	}
	cmd.Payload = []byte(data)
	return cmd, nil
}

func (cmd *GraphicsCommand) setKey(key, val string) error {
	switch key {
	case "a":
		if len(val) == 1 {
			cmd.Action = val[0]
			return nil
		}
		return fmt.Errorf("graphics: bad action %q", val)
	case "d":
		if len(val) == 1 {
			cmd.Delete = val[0]
			return nil
		}
		return fmt.Errorf("graphics: bad delete specifier %q", val)
	case "o":
		if len(val) == 1 {
			cmd.Compression = val[0]
			return nil
		}
		return fmt.Errorf("graphics: bad compression %q", val)
	case "t":
		if len(val) == 1 {
			cmd.Medium = val[0]
			return nil
		}
		return fmt.Errorf("graphics: bad medium %q", val)
	case "f", "s", "v", "i", "p", "m", "q", "x", "y", "X", "Y", "w", "h", "c", "r", "z", "U":
	default:
		// Unknown key: ignore it whatever its value looks like.
		return nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("graphics: key %s: %w", key, err)
	}
	switch key {
	case "f":
		cmd.Format = n
	case "s":
		cmd.Width = n
	case "v":
		cmd.Height = n
	case "i":
		cmd.ImageID = uint32(n)
	case "p":
		cmd.PlacementID = uint32(n)
	case "m":
		cmd.More = n != 0
	case "q":
		cmd.Quiet = n
	case "x":
		cmd.OffsetX = n
	case "y":
		cmd.OffsetY = n
	case "X":
		cmd.CropX = n
	case "Y":
		cmd.CropY = n
	case "w":
		cmd.CropW = n
	case "h":
		cmd.CropH = n
	case "c":
		cmd.Cols = n
	case "r":
		cmd.Rows = n
	case "z":
		cmd.ZIndex = n
	case "U":
		cmd.Placeholder = rune(n)
	}
	return nil
}

// Image is a decoded transmission held by the store.
type Image struct {
	ID     uint32
	Format ImageFormat
	Width  int // pixels; zero for compressed formats until rendered
	Height int
	Data   []byte
}

// Placement positions a stored image on the grid.
type Placement struct {
	ImageID     uint32
	PlacementID uint32
	Row, Col    int // anchor cell, 0-based
	Rows, Cols  int // footprint in cells
	OffsetX     int // pixel nudge inside the anchor cell
	OffsetY     int
	CropX       int // source-crop rectangle; zero width/height means whole image
	CropY       int
	CropW       int
	CropH       int
	ZIndex      int
	Placeholder rune
}

// pendingChunks accumulates a chunked transmission (m=1) until the final
// chunk arrives.
type pendingChunks struct {
	first *GraphicsCommand
	data  []byte
}

// ImageStore holds transmitted images and their placements.
type ImageStore struct {
	images     map[uint32]*Image
	placements []Placement
	pending    *pendingChunks

	cellWidth  int
	cellHeight int
	nextID     uint32
}

// NewImageStore returns an empty store using the given pixels-per-cell
// metrics; pass zero for either to use the defaults.
func NewImageStore(cellWidth, cellHeight int) *ImageStore {
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultCellHeight
	}
	return &ImageStore{
		images:     make(map[uint32]*Image),
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
	}
}

// SetCellSize updates the pixels-per-cell metrics used to size future
// placements.
func (s *ImageStore) SetCellSize(w, h int) {
	if w > 0 {
		s.cellWidth = w
	}
	if h > 0 {
		s.cellHeight = h
	}
}

// HandleCommand applies one graphics command at the given cursor cell within
// a screen of the given size. It returns the APC response to send back to the
// application ("" when the command is quiet or needs no reply) and any decode
// error, which is scoped to the command's image.
func (s *ImageStore) HandleCommand(cmd *GraphicsCommand, cursorRow, cursorCol, screenRows, screenCols int) (string, error) {
	if cmd.Medium != 0 && cmd.Medium != 'd' {
		err := fmt.Errorf("graphics: unsupported medium %q", cmd.Medium)
		return s.respond(cmd, cmd.ImageID, err), err
	}
	switch cmd.Action {
	case 't', 'T':
		id, err := s.handleTransmit(cmd)
		if err != nil {
			return s.respond(cmd, id, err), err
		}
		if cmd.More {
			return "", nil
		}
		if cmd.Action == 'T' {
			s.place(s.images[id], cmd, cursorRow, cursorCol, screenRows, screenCols)
		}
		return s.respond(cmd, id, nil), nil
	case 'p':
		img, ok := s.images[cmd.ImageID]
		if !ok {
			err := &DecodeError{ImageID: cmd.ImageID, Err: errors.New("no such image")}
			return s.respond(cmd, cmd.ImageID, err), err
		}
		s.place(img, cmd, cursorRow, cursorCol, screenRows, screenCols)
		return s.respond(cmd, cmd.ImageID, nil), nil
	case 'd', 'D':
		s.handleDelete(cmd)
		return "", nil
	default:
		err := fmt.Errorf("graphics: unknown action %q", cmd.Action)
		return s.respond(cmd, cmd.ImageID, err), err
	}
}

// handleTransmit decodes a transmission, accumulating chunks when m=1, and
// stores the completed image. It returns the assigned image id.
func (s *ImageStore) handleTransmit(cmd *GraphicsCommand) (uint32, error) {
	first := cmd
	data := cmd.Payload
	if s.pending != nil {
		first = s.pending.first
		s.pending.data = append(s.pending.data, cmd.Payload...)
		data = s.pending.data
	}
	if cmd.More {
		if s.pending == nil {
			s.pending = &pendingChunks{first: cmd, data: append([]byte(nil), cmd.Payload...)}
		}
		return first.ImageID, nil
	}
	s.pending = nil

	id := first.ImageID
	if id == 0 {
		s.nextID++
		id = s.nextID
	}

	raw, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return id, &DecodeError{ImageID: id, Err: fmt.Errorf("base64: %w", err)}
	}
	if first.Compression == 'z' {
		raw, err = inflate(raw)
		if err != nil {
			return id, &DecodeError{ImageID: id, Err: fmt.Errorf("zlib: %w", err)}
		}
	}

	img := &Image{ID: id, Width: first.Width, Height: first.Height, Data: raw}
	switch first.Format {
	case 24:
		img.Format = FormatRGB
		if err := checkRawSize(raw, first.Width, first.Height, 3); err != nil {
			return id, &DecodeError{ImageID: id, Err: err}
		}
	case 32:
		img.Format = FormatRGBA
		if err := checkRawSize(raw, first.Width, first.Height, 4); err != nil {
			return id, &DecodeError{ImageID: id, Err: err}
		}
	case 0, 100:
		f, ok := sniffFormat(raw)
		if !ok {
			return id, &DecodeError{ImageID: id, Err: errors.New("unrecognized image data")}
		}
		img.Format = f
	default:
		return id, &DecodeError{ImageID: id, Err: fmt.Errorf("unsupported format %d", first.Format)}
	}

	s.images[id] = img
	return id, nil
}

func checkRawSize(data []byte, w, h, bpp int) error {
	if w <= 0 || h <= 0 {
		return errors.New("raw transmission missing s/v dimensions")
	}
	if want := w * h * bpp; len(data) != want {
		return fmt.Errorf("raw pixel data is %d bytes, want %d", len(data), want)
	}
	return nil
}

// sniffFormat recognizes PNG, JPEG and GIF by their leading magic bytes.
func sniffFormat(data []byte) (ImageFormat, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, true
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG, true
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF, true
	}
	return 0, false
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// place records a placement at the cursor, sizing the footprint by
// precedence: explicit r/c keys, then transmitted pixel size over the cell
// metrics, then the image's native size over the cell metrics. The footprint
// is clipped to the screen so it never extends past the right or bottom edge.
func (s *ImageStore) place(img *Image, cmd *GraphicsCommand, cursorRow, cursorCol, screenRows, screenCols int) {
	cols, rows := cmd.Cols, cmd.Rows
	if cols <= 0 || rows <= 0 {
		w, h := cmd.Width, cmd.Height
		if w <= 0 || h <= 0 {
			w, h = img.Width, img.Height
		}
		if cols <= 0 {
			cols = ceilDiv(w, s.cellWidth)
		}
		if rows <= 0 {
			rows = ceilDiv(h, s.cellHeight)
		}
	}
	if cols > screenCols-cursorCol {
		cols = screenCols - cursorCol
	}
	if rows > screenRows-cursorRow {
		rows = screenRows - cursorRow
	}
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	s.placements = append(s.placements, Placement{
		ImageID:     img.ID,
		PlacementID: cmd.PlacementID,
		Row:         cursorRow,
		Col:         cursorCol,
		Rows:        rows,
		Cols:        cols,
		OffsetX:     cmd.OffsetX,
		OffsetY:     cmd.OffsetY,
		CropX:       cmd.CropX,
		CropY:       cmd.CropY,
		CropW:       cmd.CropW,
		CropH:       cmd.CropH,
		ZIndex:      cmd.ZIndex,
		Placeholder: cmd.Placeholder,
	})
}

// handleDelete removes placements, narrowest selector first: a named image
// beats a named placement, which beats the delete-everything default. An
// uppercase specifier also frees the image data.
func (s *ImageStore) handleDelete(cmd *GraphicsCommand) {
	freeData := cmd.Delete >= 'A' && cmd.Delete <= 'Z'
	switch {
	case cmd.ImageID != 0:
		s.dropPlacements(func(p Placement) bool {
			if p.ImageID != cmd.ImageID {
				return false
			}
			return cmd.PlacementID == 0 || p.PlacementID == cmd.PlacementID
		})
		if freeData {
			delete(s.images, cmd.ImageID)
		}
	case cmd.PlacementID != 0:
		s.dropPlacements(func(p Placement) bool { return p.PlacementID == cmd.PlacementID })
	default:
		s.placements = nil
		if freeData {
			s.images = make(map[uint32]*Image)
		}
	}
}

func (s *ImageStore) dropPlacements(match func(Placement) bool) {
	kept := s.placements[:0]
	for _, p := range s.placements {
		if !match(p) {
			kept = append(kept, p)
		}
	}
	s.placements = kept
}

// respond builds the APC reply for a command, honoring the quiet level.
func (s *ImageStore) respond(cmd *GraphicsCommand, id uint32, err error) string {
	if cmd.Quiet >= 2 || (cmd.Quiet >= 1 && err == nil) {
		return ""
	}
	status := "OK"
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			status = "EBADDATA:" + de.Err.Error()
		} else {
			status = "EBADDATA:" + err.Error()
		}
	}
	return fmt.Sprintf("\x1b_Gi=%d;%s\x1b\\", id, status)
}

// Image returns the stored image with the given id, if any.
func (s *ImageStore) Image(id uint32) (*Image, bool) {
	img, ok := s.images[id]
	return img, ok
}

// Placements returns the current placements in creation order. The slice is
// shared; callers must not modify it.
func (s *ImageStore) Placements() []Placement {
	return s.placements
}

// Reset drops every image, placement and pending chunk.
func (s *ImageStore) Reset() {
	s.images = make(map[uint32]*Image)
	s.placements = nil
	s.pending = nil
	s.nextID = 0
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 1
	}
	return (a + b - 1) / b
}
