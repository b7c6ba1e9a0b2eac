// Package cartridge parses iNES ROM images into a Cartridge: the raw
// PRG/CHR banks, a decoded header, and the mapper that translates bus
// addresses into them.
package cartridge

import (
	"errors"
	"fmt"
	"io"

	"github.com/eightbitcore/nes/pkg/logger"
	"github.com/eightbitcore/nes/pkg/mapper"
)

// Kind classifies a loader failure.
type Kind int

const (
	KindInvalidHeader Kind = iota
	KindTruncatedImage
	KindUnsupportedMapper
)

// Sentinel errors satisfying errors.Is(err, cartridge.ErrInvalidHeader) etc.
var (
	ErrInvalidHeader     = errors.New("cartridge: invalid iNES header")
	ErrTruncatedImage    = errors.New("cartridge: truncated ROM image")
	ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper")
)

// LoadError wraps a loader failure with the offending Kind and detail.
type LoadError struct {
	Kind   Kind
	Detail string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.sentinel().Error(), e.Detail)
}

func (e *LoadError) Unwrap() error { return e.sentinel() }

func (e *LoadError) sentinel() error {
	switch e.Kind {
	case KindTruncatedImage:
		return ErrTruncatedImage
	case KindUnsupportedMapper:
		return ErrUnsupportedMapper
	default:
		return ErrInvalidHeader
	}
}

// Header is the decoded 16-byte iNES header, exposed read-only for tooling
// (cmd/rom_analyzer) even though the core only needs it to build a mapper.
type Header struct {
	PRGROMSize uint8 // ×16 KiB
	CHRROMSize uint8 // ×8 KiB; 0 means 8 KiB of CHR RAM
	Mapper     uint8
	Mirroring  mapper.Mirroring
	Battery    bool
	Trainer    bool
}

// Cartridge is a loaded iNES image plus the mapper that serves it.
type Cartridge struct {
	Header Header

	PRGROM, CHRROM []uint8
	PRGRAM, CHRRAM []uint8

	Mapper mapper.Mapper
}

const (
	prgBankSize = 16384
	chrBankSize = 8192
)

// Load parses an iNES image from r: the 16-byte header, optional 512-byte
// trainer (skipped, never retained per the core's stated scope), PRG ROM,
// and CHR ROM (or a zeroed CHR RAM bank when CHR ROM size is zero).
func Load(r io.Reader) (*Cartridge, error) {
	raw := make([]uint8, 16)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, &LoadError{Kind: KindInvalidHeader, Detail: "short header: " + err.Error()}
	}
	if string(raw[0:4]) != "NES\x1A" {
		return nil, &LoadError{Kind: KindInvalidHeader, Detail: "bad magic"}
	}

	flags6, flags7 := raw[6], raw[7]
	h := Header{
		PRGROMSize: raw[4],
		CHRROMSize: raw[5],
		Mapper:     (flags6 >> 4) | (flags7 & 0xF0),
		Battery:    flags6&0x02 != 0,
		Trainer:    flags6&0x04 != 0,
	}
	if flags6&0x01 != 0 {
		h.Mirroring = mapper.MirrorVertical
	} else {
		h.Mirroring = mapper.MirrorHorizontal
	}

	if h.Trainer {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, &LoadError{Kind: KindTruncatedImage, Detail: "trainer: " + err.Error()}
		}
	}

	prg := make([]uint8, int(h.PRGROMSize)*prgBankSize)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, &LoadError{Kind: KindTruncatedImage, Detail: "PRG ROM: " + err.Error()}
	}

	var chr, chrRAM []uint8
	chrSize := int(h.CHRROMSize) * chrBankSize
	if chrSize > 0 {
		chr = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, chr); err != nil {
			return nil, &LoadError{Kind: KindTruncatedImage, Detail: "CHR ROM: " + err.Error()}
		}
	} else {
		chrRAM = make([]uint8, chrBankSize) // power-up zeroed, per spec's reset lifecycle
	}

	var prgRAM []uint8
	if h.Battery {
		prgRAM = make([]uint8, 8192)
	}

	data := &mapper.CartridgeData{
		PRGROM:    prg,
		CHRROM:    chr,
		PRGRAM:    prgRAM,
		CHRRAM:    chrRAM,
		Mirroring: h.Mirroring,
	}
	m, err := mapper.New(h.Mapper, data)
	if err != nil {
		return nil, &LoadError{Kind: KindUnsupportedMapper, Detail: err.Error()}
	}

	logger.LogInfo("cartridge loaded: mapper=%d PRG=%dKiB CHR=%dKiB battery=%v",
		h.Mapper, len(prg)/1024, (len(chr)+len(chrRAM))/1024, h.Battery)

	return &Cartridge{
		Header: h,
		PRGROM: prg, CHRROM: chr,
		PRGRAM: prgRAM, CHRRAM: chrRAM,
		Mapper: m,
	}, nil
}
