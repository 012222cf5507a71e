package message

import "github.com/pkg/errors"

// MimeType is one of the closed set of MIME types this protocol knows how to
// carry in a DisplayData bundle.
type MimeType string

const (
	MimeTextPlain       MimeType = "text/plain"
	MimeTextHTML        MimeType = "text/html"
	MimeImagePNG        MimeType = "image/png"
	MimeImageJPEG       MimeType = "image/jpeg"
	MimeImageSVG        MimeType = "image/svg+xml"
	MimeTextLatex       MimeType = "text/latex"
	MimeApplicationJS   MimeType = "application/javascript"
)

// ImageMetadata carries the dimensions Jupyter expects alongside an image
// mimetype's data, under the sibling "metadata" map.
type ImageMetadata struct {
	Width  int
	Height int
}

// DisplayData is a mapping from MimeType to encoded string content, with
// optional per-mime metadata (currently only image dimensions).
//
// On the wire it is emitted as two sibling fields: "data" (mimetype -> string)
// and "metadata" (mimetype -> metadata object), both keyed by the stringified
// MimeType.
type DisplayData struct {
	Content  map[MimeType]string
	ImageDim map[MimeType]ImageMetadata // only set for image/png, image/jpeg entries
}

// NewDisplayData returns an empty bundle ready to be populated.
func NewDisplayData() DisplayData {
	return DisplayData{
		Content:  make(map[MimeType]string),
		ImageDim: make(map[MimeType]ImageMetadata),
	}
}

// WithText adds a plain-text representation.
func (d DisplayData) WithText(text string) DisplayData {
	d.Content[MimeTextPlain] = text
	return d
}

// WithHTML adds an HTML representation.
func (d DisplayData) WithHTML(html string) DisplayData {
	d.Content[MimeTextHTML] = html
	return d
}

// WithImage adds a PNG or JPEG representation with its pixel dimensions.
func (d DisplayData) WithImage(mime MimeType, encoded string, width, height int) (DisplayData, error) {
	if mime != MimeImagePNG && mime != MimeImageJPEG {
		return d, errors.Errorf("WithImage: %q is not an image mimetype with dimensions", mime)
	}
	d.Content[mime] = encoded
	d.ImageDim[mime] = ImageMetadata{Width: width, Height: height}
	return d, nil
}

// encode splits d into the wire-level "data" and "metadata" sibling maps.
func (d DisplayData) encode() (data map[string]any, metadata map[string]any) {
	data = make(map[string]any, len(d.Content))
	metadata = make(map[string]any, len(d.Content))
	for mime, content := range d.Content {
		data[string(mime)] = content
		if dim, ok := d.ImageDim[mime]; ok {
			metadata[string(mime)] = map[string]any{"width": dim.Width, "height": dim.Height}
		}
	}
	return data, metadata
}

// decodeDisplayData rebuilds a DisplayData from the wire-level "data" and
// "metadata" sibling maps.
func decodeDisplayData(data, metadata map[string]any) DisplayData {
	d := NewDisplayData()
	for mimeStr, v := range data {
		text, _ := v.(string)
		mime := MimeType(mimeStr)
		d.Content[mime] = text
	}
	for mimeStr, v := range metadata {
		meta, ok := v.(map[string]any)
		if !ok {
			continue
		}
		mime := MimeType(mimeStr)
		width, _ := meta["width"].(float64)
		height, _ := meta["height"].(float64)
		d.ImageDim[mime] = ImageMetadata{Width: int(width), Height: int(height)}
	}
	return d
}
