package accounts

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// mintBaseSize is the fixed layout shared by both token programs. Mints
// under the extensions program carry additional TLV data past an account
// type byte at offset 165.
const (
	mintBaseSize        = 82
	extensionTypeOffset = 165
	extensionDataOffset = 166
	accountTypeMint     = 1
)

// Extension type tags from the extensions token program.
const (
	extTransferFeeConfig     = 1
	extNonTransferable       = 9
	extInterestBearingConfig = 10
	extPermanentDelegate     = 12
	extTransferHook          = 14
)

// Mint is a decoded mint account, including any extensions present.
type Mint struct {
	Address         solana.PublicKey
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	Initialized     bool
	FreezeAuthority *solana.PublicKey
	Extensions      MintExtensions
}

// MintExtensions summarizes the extensions attached to a mint. Absent
// extensions leave the zero value.
type MintExtensions struct {
	TransferFeeBasisPoints uint16
	HasTransferFee         bool
	InterestRate           int16
	HasInterestRate        bool
	NonTransferable        bool
	PermanentDelegate      *solana.PublicKey
	HasTransferHook        bool
}

// LikelyNFT reports whether the mint looks like a non-fungible token:
// zero decimals and a supply of exactly one.
func (m *Mint) LikelyNFT() bool {
	return m.Decimals == 0 && m.Supply == 1
}

// DecodeMint decodes a mint account owned by either token program. Data
// past the base layout is parsed as extension TLV entries when present.
func DecodeMint(address solana.PublicKey, data []byte) (*Mint, error) {
	if len(data) < mintBaseSize {
		return nil, fmt.Errorf("mint account too short: got %d bytes, want at least %d", len(data), mintBaseSize)
	}

	m := &Mint{Address: address}

	if binary.LittleEndian.Uint32(data[0:4]) != 0 {
		var auth solana.PublicKey
		copy(auth[:], data[4:36])
		m.MintAuthority = &auth
	}
	m.Supply = binary.LittleEndian.Uint64(data[36:44])
	m.Decimals = data[44]
	m.Initialized = data[45] != 0
	if binary.LittleEndian.Uint32(data[46:50]) != 0 {
		var auth solana.PublicKey
		copy(auth[:], data[50:82])
		m.FreezeAuthority = &auth
	}

	if len(data) > extensionTypeOffset && data[extensionTypeOffset] == accountTypeMint {
		if err := decodeMintExtensions(data[extensionDataOffset:], &m.Extensions); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// decodeMintExtensions walks the TLV entries following the account type
// byte. Unknown extension types are skipped.
func decodeMintExtensions(tlv []byte, out *MintExtensions) error {
	off := 0
	for off+4 <= len(tlv) {
		typ := binary.LittleEndian.Uint16(tlv[off : off+2])
		length := int(binary.LittleEndian.Uint16(tlv[off+2 : off+4]))
		off += 4
		if off+length > len(tlv) {
			return fmt.Errorf("mint extension %d: declared length %d exceeds account data", typ, length)
		}
		value := tlv[off : off+length]
		off += length

		switch typ {
		case extTransferFeeConfig:
			// The newer fee schedule's basis points sit at the tail of
			// the config.
			if length >= 108 {
				out.TransferFeeBasisPoints = binary.LittleEndian.Uint16(value[106:108])
				out.HasTransferFee = true
			}
		case extInterestBearingConfig:
			if length >= 52 {
				out.InterestRate = int16(binary.LittleEndian.Uint16(value[50:52]))
				out.HasInterestRate = true
			}
		case extNonTransferable:
			out.NonTransferable = true
		case extPermanentDelegate:
			if length >= 32 {
				var delegate solana.PublicKey
				copy(delegate[:], value[:32])
				out.PermanentDelegate = &delegate
			}
		case extTransferHook:
			out.HasTransferHook = true
		}
	}
	return nil
}
