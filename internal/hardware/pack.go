package hardware

import "fmt"

// Start markers: flush displays immediately, buffer holds for the next
// flush command to another module.
const (
	startByte0   = 0x80
	startFlush   = 0x83
	startBuffer  = 0x84
	endByte      = 0x8F
)

// Pack validates matrix against the panel geometry, then produces the
// concatenated per-module wire commands in row-major panel order. matrix is
// height x width, where height == p.Rows*p.ModuleHeight and width ==
// p.Cols*p.ModuleWidth.
func (p *Panel) Pack(matrix [][]byte, flush bool) ([]byte, error) {
	wantWidth, wantHeight := p.Dimensions()
	if len(matrix) != wantHeight {
		return nil, fmt.Errorf("%w: matrix height %d, want %d", ErrDimensionMismatch, len(matrix), wantHeight)
	}
	for i, row := range matrix {
		if len(row) != wantWidth {
			return nil, fmt.Errorf("%w: matrix row %d has width %d, want %d", ErrDimensionMismatch, i, len(row), wantWidth)
		}
	}

	out := make([]byte, 0, p.Rows*p.Cols*(2+1+p.ModuleWidth+1))
	for r := 0; r < p.Rows; r++ {
		rowStart := r * p.ModuleHeight
		for c := 0; c < p.Cols; c++ {
			colStart := c * p.ModuleWidth
			out = append(out, p.packModule(matrix, rowStart, colStart, p.Modules[r][c].Address, flush)...)
		}
	}
	return out, nil
}

// packModule extracts the sub-matrix for one module and encodes it as a
// single serial command: 2-byte start marker, address, W payload bytes (one
// per column, packed top-to-bottom with the top pixel at the LSB), end byte.
func (p *Panel) packModule(matrix [][]byte, rowStart, colStart int, address byte, flush bool) []byte {
	cmd := make([]byte, 0, 2+1+p.ModuleWidth+1)
	startMarker := byte(startBuffer)
	if flush {
		startMarker = startFlush
	}
	cmd = append(cmd, startByte0, startMarker, address)

	for col := 0; col < p.ModuleWidth; col++ {
		var b byte
		for row := 0; row < p.ModuleHeight; row++ {
			if matrix[rowStart+row][colStart+col] != 0 {
				b |= 1 << uint(row)
			}
		}
		cmd = append(cmd, b)
	}

	cmd = append(cmd, endByte)
	return cmd
}

// PackFromBits unpacks a little-endian-packed bitstream of the given
// dimensions into a matrix and packs it for the panel, the path used for
// frames that arrive as Frame.Data rather than as an already-expanded
// matrix.
func (p *Panel) PackFromBits(data []byte, width, height int, flush bool) ([]byte, error) {
	wantWidth, wantHeight := p.Dimensions()
	if width != wantWidth || height != wantHeight {
		return nil, fmt.Errorf("%w: frame is %dx%d, panel is %dx%d", ErrDimensionMismatch, width, height, wantWidth, wantHeight)
	}
	matrix := unpackBits(data, width, height)
	return p.Pack(matrix, flush)
}

// BlankMatrix returns an all-zero matrix sized to the panel.
func (p *Panel) BlankMatrix() [][]byte {
	width, height := p.Dimensions()
	m := make([][]byte, height)
	for i := range m {
		m[i] = make([]byte, width)
	}
	return m
}

// unpackBits mirrors frame.UnpackBits without importing the frame package,
// keeping hardware free of a dependency on the content model (it only ever
// needs raw bits + dimensions, passed in by the driver loop).
func unpackBits(data []byte, width, height int) [][]byte {
	matrix := make([][]byte, height)
	bitIdx := 0
	for row := 0; row < height; row++ {
		line := make([]byte, width)
		for col := 0; col < width; col++ {
			byteIdx := bitIdx / 8
			bitPos := uint(bitIdx % 8)
			if byteIdx < len(data) {
				line[col] = (data[byteIdx] >> bitPos) & 1
			}
			bitIdx++
		}
		matrix[row] = line
	}
	return matrix
}
