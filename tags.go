package texpack

// A TIFF container holds one or more images, each described by an Image File
// Directory (IFD) of 12-byte entries: a tag id, the data type and count, and
// the data itself or a pointer to it when it exceeds 4 bytes. The external
// decode libraries drop the metadata this pipeline needs (per-band bit depth,
// sample format, the photometric tag, the raw color map), so the scanner
// below walks the IFD chain and recovers it. It never touches strip or tile
// payload bytes; pixel decode stays delegated.

import (
	"bytes"
	"encoding/binary"
)

const (
	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	ifdLen = 12 // Length of an IFD entry in bytes.
)

// Data types (p. 14-16 of the TIFF spec). Only the uint-valued ones are
// scanned; everything the pipeline needs is Byte, Short or Long.
const (
	dtByte  = 1
	dtShort = 3
	dtLong  = 4
)

// The length of one instance of each scanned data type in bytes.
var dtLengths = map[uint16]uint32{
	dtByte:  1,
	dtShort: 2,
	dtLong:  4,
}

// Tags (see p. 28-41 of the TIFF spec).
const (
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tPhotometricInterpretation = 262
	tSamplesPerPixel           = 277
	tColorMap                  = 320
	tExtraSamples              = 338
	tSampleFormat              = 339
)

type tagValue struct {
	datatype uint16
	val      []uint
}

// firstVal returns the first uint of the entry, or 0 if it is empty.
func (t tagValue) firstVal() uint {
	if len(t.val) == 0 {
		return 0
	}
	return t.val[0]
}

// containerTags is the scanned metadata of every image in a container.
type containerTags struct {
	byteOrder binary.ByteOrder
	images    []map[uint16]tagValue
}

// count returns the number of images in the container's main IFD chain.
func (c *containerTags) count() int { return len(c.images) }

// tag returns the entry for image fi, a zero value when absent.
func (c *containerTags) tag(fi int, id uint16) tagValue {
	if fi < 0 || fi >= len(c.images) {
		return tagValue{}
	}
	return c.images[fi][id]
}

// has reports whether image fi declares the tag.
func (c *containerTags) has(fi int, id uint16) bool {
	if fi < 0 || fi >= len(c.images) {
		return false
	}
	_, ok := c.images[fi][id]
	return ok
}

// scanContainerTags walks the main IFD chain of a TIFF container and collects
// the interesting tags of every image.
func scanContainerTags(data []byte) (*containerTags, error) {
	r := bytes.NewReader(data)

	p := make([]byte, 8)
	if _, err := r.ReadAt(p, 0); err != nil {
		return nil, FormatError("truncated header")
	}

	c := &containerTags{}
	switch string(p[0:4]) {
	case leHeader:
		c.byteOrder = binary.LittleEndian
	case beHeader:
		c.byteOrder = binary.BigEndian
	default:
		return nil, FormatError("malformed header")
	}

	offset := int64(c.byteOrder.Uint32(p[4:8]))
	for offset != 0 {
		if len(c.images) > 1024 {
			return nil, FormatError("IFD chain too long or cyclic")
		}
		next, err := c.scanIFD(r, offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}

	if len(c.images) == 0 {
		return nil, FormatError("container holds no image directory")
	}
	return c, nil
}

// scanIFD reads one IFD at offset, appends its interesting entries as a new
// image, and returns the offset of the next IFD in the chain (0 at the end).
func (c *containerTags) scanIFD(r *bytes.Reader, offset int64) (int64, error) {
	features := make(map[uint16]tagValue)

	p := make([]byte, 2)
	if _, err := r.ReadAt(p, offset); err != nil {
		return 0, FormatError("truncated IFD header")
	}
	numItems := int(c.byteOrder.Uint16(p))

	// All IFD entries are read in one chunk.
	p = make([]byte, ifdLen*numItems)
	if _, err := r.ReadAt(p, offset+2); err != nil {
		return 0, FormatError("truncated IFD entries")
	}

	for i := 0; i < len(p); i += ifdLen {
		entry := p[i : i+ifdLen]
		tid := c.byteOrder.Uint16(entry[0:2])
		switch tid {
		case tImageWidth,
			tImageLength,
			tBitsPerSample,
			tPhotometricInterpretation,
			tSamplesPerPixel,
			tColorMap,
			tExtraSamples,
			tSampleFormat:
			val, dt, err := c.ifdUint(r, entry)
			if err != nil {
				return 0, err
			}
			if val == nil {
				// Unscannable data type; the tag is ignored rather than
				// failing the whole container.
				continue
			}
			features[tid] = tagValue{datatype: dt, val: val}
		}
	}

	c.images = append(c.images, features)

	// The next IFD offset follows the entry table.
	next := make([]byte, 4)
	if _, err := r.ReadAt(next, offset+2+int64(ifdLen*numItems)); err != nil {
		return 0, FormatError("truncated IFD chain pointer")
	}
	return int64(c.byteOrder.Uint32(next)), nil
}

// ifdUint decodes the IFD entry in p, which must be of the Byte, Short or
// Long type, and returns the decoded uint values and their datatype. Other
// data types return a nil slice.
func (c *containerTags) ifdUint(r *bytes.Reader, p []byte) (u []uint, dt uint16, err error) {
	datatype := c.byteOrder.Uint16(p[2:4])
	count := c.byteOrder.Uint32(p[4:8])

	size, ok := dtLengths[datatype]
	if !ok {
		return nil, datatype, nil
	}

	var raw []byte
	if datalen := size * count; datalen > 4 {
		// The IFD contains a pointer to the real value.
		raw = make([]byte, datalen)
		if _, err = r.ReadAt(raw, int64(c.byteOrder.Uint32(p[8:12]))); err != nil {
			return nil, 0, FormatError("truncated tag value")
		}
	} else {
		raw = p[8 : 8+datalen]
	}

	u = make([]uint, count)
	switch datatype {
	case dtByte:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(raw[i])
		}
	case dtShort:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(c.byteOrder.Uint16(raw[2*i : 2*(i+1)]))
		}
	case dtLong:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(c.byteOrder.Uint32(raw[4*i : 4*(i+1)]))
		}
	}
	return u, datatype, nil
}
