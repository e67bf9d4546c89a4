// Package bundle implements the self-describing binary snapshot
// container used for world.dat, per-plane files, per-chunk files, and
// per-client save files (spec §4.2). The container itself is a generic
// section table; internal/bundle/object.go and exporter.go/importer.go
// layer the world-object semantics (local-ID remap, string tables, the
// export/import algorithms) on top of it.
package bundle

import (
	"encoding/binary"
	"fmt"
)

// MajorVersion/MinorVersion are the container format version this build
// understands. A mismatch on either is fatal for the file being read
// (spec §4.2 "the major/minor version must match the code's expectation
// exactly").
const (
	MajorVersion uint16 = 1
	MinorVersion uint16 = 0
)

const (
	fileHeaderSize    = 16 // major(2) + minor(2) + numSections(4) + reserved(4) + reserved(4)
	sectionHeaderSize = 16 // name[8] + offset(4) + len(4)
	sectionNameLen    = 8
)

// align4 rounds n up to the next multiple of 4.
func align4(n int) int {
	return (n + 3) &^ 3
}

// Section is one named payload in a container, before/after (de)serialization.
type Section struct {
	Name string
	Data []byte
}

// Builder accumulates sections and produces a container byte slice.
type Builder struct {
	sections []Section
}

// NewBuilder creates an empty container builder.
func NewBuilder() *Builder { return &Builder{} }

// AddSection appends a named section. Names longer than 8 bytes are
// rejected; this mirrors the fixed name[8] field in the section
// descriptor.
func (b *Builder) AddSection(name string, data []byte) error {
	if len(name) == 0 || len(name) > sectionNameLen {
		return fmt.Errorf("bundle: section name %q must be 1-%d bytes", name, sectionNameLen)
	}
	b.sections = append(b.sections, Section{Name: name, Data: data})
	return nil
}

// Build serializes the header, section descriptor table, and padded
// section payloads into a single byte slice.
func (b *Builder) Build() []byte {
	numSections := len(b.sections)
	headerAndTable := fileHeaderSize + numSections*sectionHeaderSize

	// First pass: compute aligned offsets for every payload.
	offsets := make([]int, numSections)
	cursor := align4(headerAndTable)
	for i, s := range b.sections {
		offsets[i] = cursor
		cursor = align4(cursor + len(s.Data))
	}
	total := cursor

	out := make([]byte, total)

	binary.LittleEndian.PutUint16(out[0:2], MajorVersion)
	binary.LittleEndian.PutUint16(out[2:4], MinorVersion)
	binary.LittleEndian.PutUint32(out[4:8], uint32(numSections))
	// out[8:16] reserved, left zero.

	descBase := fileHeaderSize
	for i, s := range b.sections {
		d := out[descBase+i*sectionHeaderSize : descBase+(i+1)*sectionHeaderSize]
		var name [sectionNameLen]byte
		copy(name[:], s.Name)
		copy(d[0:8], name[:])
		binary.LittleEndian.PutUint32(d[8:12], uint32(offsets[i]))
		binary.LittleEndian.PutUint32(d[12:16], uint32(len(s.Data)))

		copy(out[offsets[i]:offsets[i]+len(s.Data)], s.Data)
	}

	return out
}

// Container is a parsed, validated view over a bundle's bytes. Section
// payloads are subslices of the original buffer — no copy is performed
// (spec §4.2, "zero-copy-readable").
type Container struct {
	Major, Minor uint16
	data         []byte
	order        []string
	sections     map[string][]byte
}

// Parse validates and indexes a container's section table. It rejects
// any section whose offset is not 4-aligned or whose offset+len exceeds
// the buffer length (spec §4.2 container invariant).
func Parse(data []byte) (*Container, error) {
	if len(data) < fileHeaderSize {
		return nil, fmt.Errorf("bundle: truncated header (%d bytes)", len(data))
	}

	major := binary.LittleEndian.Uint16(data[0:2])
	minor := binary.LittleEndian.Uint16(data[2:4])
	numSections := int(binary.LittleEndian.Uint32(data[4:8]))

	if major != MajorVersion || minor != MinorVersion {
		return nil, fmt.Errorf("bundle: version mismatch: file is %d.%d, expected %d.%d", major, minor, MajorVersion, MinorVersion)
	}

	descBase := fileHeaderSize
	descEnd := descBase + numSections*sectionHeaderSize
	if descEnd > len(data) {
		return nil, fmt.Errorf("bundle: section table (%d bytes) exceeds file length (%d)", descEnd, len(data))
	}

	c := &Container{
		Major: major, Minor: minor,
		data:     data,
		order:    make([]string, 0, numSections),
		sections: make(map[string][]byte, numSections),
	}

	for i := 0; i < numSections; i++ {
		d := data[descBase+i*sectionHeaderSize : descBase+(i+1)*sectionHeaderSize]
		name := trimName(d[0:8])
		offset := int(binary.LittleEndian.Uint32(d[8:12]))
		length := int(binary.LittleEndian.Uint32(d[12:16]))

		if offset%4 != 0 {
			return nil, fmt.Errorf("bundle: section %q offset %d is not 4-aligned", name, offset)
		}
		if offset < 0 || length < 0 || offset+length > len(data) {
			return nil, fmt.Errorf("bundle: section %q offset+len (%d+%d) exceeds file length (%d)", name, offset, length, len(data))
		}

		c.order = append(c.order, name)
		c.sections[name] = data[offset : offset+length]
	}

	return c, nil
}

func trimName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Section returns the raw bytes of a named section.
func (c *Container) Section(name string) ([]byte, bool) {
	s, ok := c.sections[name]
	return s, ok
}

// SectionNames returns section names in file order.
func (c *Container) SectionNames() []string {
	return c.order
}

// TotalLen returns the length of the full container, including header,
// descriptor table, and every padded section.
func (b *Builder) TotalLen() int {
	return len(b.Build())
}
