package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/shape"
)

const (
	magicBytes = "RDNAVGRF"
	version    = uint32(2)
	maxRecords = 20_000_000
	maxPoints  = 500_000_000
	maxNodes   = 2 * maxRecords
	maxEdges   = 2 * maxRecords
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic      [8]byte
	Version    uint32
	Directed   uint32
	NumRecords uint32
	NumPoints  uint32
	NameBytes  uint32
	NumNodes   uint32
	NumEdges   uint32
}

// WriteBinary serializes a built graph and its records to a binary file.
// Record attribute maps are not persisted. The file is written to a
// temporary path and renamed into place.
func WriteBinary(path string, g *NavGraph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	// Flatten records.
	numRecords := len(g.records)
	pointFirst := make([]uint32, numRecords+1)
	nameFirst := make([]uint32, numRecords+1)
	dirs := make([]byte, numRecords)
	var xs, ys []float64
	var names []byte
	for i, r := range g.records {
		pointFirst[i] = uint32(len(xs))
		nameFirst[i] = uint32(len(names))
		for _, p := range r.Geometry {
			xs = append(xs, p[0])
			ys = append(ys, p[1])
		}
		names = append(names, r.RoadName...)
		dirs[i] = byte(r.Direction[0])
	}
	pointFirst[numRecords] = uint32(len(xs))
	nameFirst[numRecords] = uint32(len(names))

	// Flatten nodes and edges.
	nodeIDs := make([]uint32, len(g.nodes))
	nodeX := make([]float64, len(g.nodes))
	nodeY := make([]float64, len(g.nodes))
	for i, n := range g.nodes {
		nodeIDs[i] = uint32(n)
		nodeX[i] = g.pos[i][0]
		nodeY[i] = g.pos[i][1]
	}
	src := make([]uint32, len(g.edges))
	tgt := make([]uint32, len(g.edges))
	geomStart := make([]uint32, numRecords)
	geomEnd := make([]uint32, numRecords)
	for i, e := range g.ends {
		geomStart[i] = uint32(e[0])
		geomEnd[i] = uint32(e[1])
	}
	gid := make([]uint32, len(g.edges))
	for i, e := range g.edges {
		src[i] = uint32(e.Source)
		tgt[i] = uint32(e.Target)
		gid[i] = uint32(e.GeometryID)
	}

	hdr := fileHeader{
		Version:    version,
		NumRecords: uint32(numRecords),
		NumPoints:  uint32(len(xs)),
		NameBytes:  uint32(len(names)),
		NumNodes:   uint32(len(g.nodes)),
		NumEdges:   uint32(len(g.edges)),
	}
	if g.directed {
		hdr.Directed = 1
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Records.
	if err := writeUint32Slice(w, pointFirst); err != nil {
		return fmt.Errorf("write PointFirst: %w", err)
	}
	if err := writeFloat64Slice(w, xs); err != nil {
		return fmt.Errorf("write PointX: %w", err)
	}
	if err := writeFloat64Slice(w, ys); err != nil {
		return fmt.Errorf("write PointY: %w", err)
	}
	if _, err := w.Write(dirs); err != nil {
		return fmt.Errorf("write Direction: %w", err)
	}
	if err := writeUint32Slice(w, nameFirst); err != nil {
		return fmt.Errorf("write NameFirst: %w", err)
	}
	if _, err := w.Write(names); err != nil {
		return fmt.Errorf("write Names: %w", err)
	}
	if err := writeUint32Slice(w, geomStart); err != nil {
		return fmt.Errorf("write GeomStart: %w", err)
	}
	if err := writeUint32Slice(w, geomEnd); err != nil {
		return fmt.Errorf("write GeomEnd: %w", err)
	}

	// Nodes.
	if err := writeUint32Slice(w, nodeIDs); err != nil {
		return fmt.Errorf("write NodeID: %w", err)
	}
	if err := writeFloat64Slice(w, nodeX); err != nil {
		return fmt.Errorf("write NodeX: %w", err)
	}
	if err := writeFloat64Slice(w, nodeY); err != nil {
		return fmt.Errorf("write NodeY: %w", err)
	}

	// Edges.
	if err := writeUint32Slice(w, src); err != nil {
		return fmt.Errorf("write EdgeSource: %w", err)
	}
	if err := writeUint32Slice(w, tgt); err != nil {
		return fmt.Errorf("write EdgeTarget: %w", err)
	}
	if err := writeUint32Slice(w, gid); err != nil {
		return fmt.Errorf("write EdgeGeometry: %w", err)
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a graph written by WriteBinary and rebuilds its
// adjacency and spatial index.
func ReadBinary(path string) (*NavGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumRecords > maxRecords || hdr.NumPoints > maxPoints {
		return nil, fmt.Errorf("record count exceeds limit %d", maxRecords)
	}
	if hdr.NumNodes > maxNodes || hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("graph size exceeds limit %d", maxNodes)
	}

	// A corrupt header must not drive allocations past the file itself.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if want := expectedFileSize(&hdr); info.Size() != want {
		return nil, fmt.Errorf("file size %d does not match header (want %d)", info.Size(), want)
	}

	pointFirst, err := readUint32Slice(r, int(hdr.NumRecords+1))
	if err != nil {
		return nil, fmt.Errorf("read PointFirst: %w", err)
	}
	xs, err := readFloat64Slice(r, int(hdr.NumPoints))
	if err != nil {
		return nil, fmt.Errorf("read PointX: %w", err)
	}
	ys, err := readFloat64Slice(r, int(hdr.NumPoints))
	if err != nil {
		return nil, fmt.Errorf("read PointY: %w", err)
	}
	dirs := make([]byte, hdr.NumRecords)
	if _, err := io.ReadFull(r, dirs); err != nil {
		return nil, fmt.Errorf("read Direction: %w", err)
	}
	nameFirst, err := readUint32Slice(r, int(hdr.NumRecords+1))
	if err != nil {
		return nil, fmt.Errorf("read NameFirst: %w", err)
	}
	names := make([]byte, hdr.NameBytes)
	if _, err := io.ReadFull(r, names); err != nil {
		return nil, fmt.Errorf("read Names: %w", err)
	}
	geomStart, err := readUint32Slice(r, int(hdr.NumRecords))
	if err != nil {
		return nil, fmt.Errorf("read GeomStart: %w", err)
	}
	geomEnd, err := readUint32Slice(r, int(hdr.NumRecords))
	if err != nil {
		return nil, fmt.Errorf("read GeomEnd: %w", err)
	}

	nodeIDs, err := readUint32Slice(r, int(hdr.NumNodes))
	if err != nil {
		return nil, fmt.Errorf("read NodeID: %w", err)
	}
	nodeX, err := readFloat64Slice(r, int(hdr.NumNodes))
	if err != nil {
		return nil, fmt.Errorf("read NodeX: %w", err)
	}
	nodeY, err := readFloat64Slice(r, int(hdr.NumNodes))
	if err != nil {
		return nil, fmt.Errorf("read NodeY: %w", err)
	}

	src, err := readUint32Slice(r, int(hdr.NumEdges))
	if err != nil {
		return nil, fmt.Errorf("read EdgeSource: %w", err)
	}
	tgt, err := readUint32Slice(r, int(hdr.NumEdges))
	if err != nil {
		return nil, fmt.Errorf("read EdgeTarget: %w", err)
	}
	gid, err := readUint32Slice(r, int(hdr.NumEdges))
	if err != nil {
		return nil, fmt.Errorf("read EdgeGeometry: %w", err)
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateOffsets(pointFirst, hdr.NumPoints); err != nil {
		return nil, fmt.Errorf("point offsets invalid: %w", err)
	}
	if err := validateOffsets(nameFirst, hdr.NameBytes); err != nil {
		return nil, fmt.Errorf("name offsets invalid: %w", err)
	}

	records := make([]shape.Record, hdr.NumRecords)
	ends := make([][2]NodeID, hdr.NumRecords)
	for i := range records {
		ends[i] = [2]NodeID{NodeID(geomStart[i]), NodeID(geomEnd[i])}
		geom := make(orb.LineString, 0, pointFirst[i+1]-pointFirst[i])
		for k := pointFirst[i]; k < pointFirst[i+1]; k++ {
			geom = append(geom, orb.Point{xs[k], ys[k]})
		}
		records[i] = shape.Record{
			ID:        i,
			Geometry:  geom,
			Direction: shape.DirectionCode(dirs[i : i+1]),
			RoadName:  string(names[nameFirst[i]:nameFirst[i+1]]),
		}
	}

	nodes := make([]NodeID, hdr.NumNodes)
	pos := make([]orb.Point, hdr.NumNodes)
	known := make(map[NodeID]bool, hdr.NumNodes)
	for i := range nodes {
		nodes[i] = NodeID(nodeIDs[i])
		pos[i] = orb.Point{nodeX[i], nodeY[i]}
		known[nodes[i]] = true
	}

	edges := make([]Edge, hdr.NumEdges)
	for i := range edges {
		if !known[NodeID(src[i])] || !known[NodeID(tgt[i])] {
			return nil, fmt.Errorf("edge %d references unknown node", i)
		}
		if gid[i] >= hdr.NumRecords {
			return nil, fmt.Errorf("edge %d references geometry %d >= NumRecords=%d", i, gid[i], hdr.NumRecords)
		}
		edges[i] = Edge{Source: NodeID(src[i]), Target: NodeID(tgt[i]), GeometryID: int(gid[i])}
	}

	return newNavGraph(records, ends, hdr.Directed == 1, nodes, pos, edges), nil
}

// expectedFileSize returns the exact size of a file with header hdr.
func expectedFileSize(hdr *fileHeader) int64 {
	records := int64(hdr.NumRecords)
	nodes := int64(hdr.NumNodes)

	size := int64(binary.Size(hdr))
	size += 4 * (records + 1) * 2        // point and name offsets
	size += 8 * int64(hdr.NumPoints) * 2 // point coordinates
	size += records + int64(hdr.NameBytes)
	size += 4 * records * 2 // geometry end nodes
	size += 4*nodes + 8*nodes*2
	size += 4 * int64(hdr.NumEdges) * 3
	return size + 4 // CRC32
}

// validateOffsets checks that offsets are monotonic and end at total.
func validateOffsets(first []uint32, total uint32) error {
	if len(first) == 0 || first[0] != 0 {
		return fmt.Errorf("offsets must start at 0")
	}
	for i := 1; i < len(first); i++ {
		if first[i] < first[i-1] {
			return fmt.Errorf("not monotonic at %d: %d < %d", i, first[i], first[i-1])
		}
	}
	if last := first[len(first)-1]; last != total {
		return fmt.Errorf("last offset %d != total %d", last, total)
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
