package archive

import "time"

const (
	endOfCentralDirectorySignature = 0x06054b50
	centralDirectorySignature      = 0x02014b50
	localFileHeaderSignature       = 0x04034b50

	endOfCentralDirectoryLen = 22
	centralDirectoryLen      = 46
	localFileHeaderLen       = 30

	// MethodStore and MethodDeflate are the compression method ids stored in
	// the entry headers. Only MethodDeflate can be extracted.
	MethodStore   uint16 = 0
	MethodDeflate uint16 = 8

	flagEncrypted      = 0x0001
	flagDataDescriptor = 0x0008

	uint16Max = 0xffff
	uint32Max = 0xffffffff
)

// DefaultMaxArchiveSize is the largest archive Load will buffer unless told
// otherwise: a full 32-bit offset range plus a maximal trailing comment.
const DefaultMaxArchiveSize int64 = 1<<32 + uint16Max + endOfCentralDirectoryLen

// endOfCentralDirectory is the fixed part of the trailer record.
type endOfCentralDirectory struct {
	Signature        uint32
	DiskNumber       uint16
	DiskWithCDStart  uint16
	EntriesOnDisk    uint16
	TotalEntries     uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
	CommentLength    uint16
}

type centralDirectoryHeader struct {
	Signature          uint32
	VersionMadeBy      uint16
	VersionNeeded      uint16
	Flags              uint16
	Method             uint16
	ModifiedTime       uint16
	ModifiedDate       uint16
	CRC32              uint32
	CompressedSize     uint32
	UncompressedSize   uint32
	FilenameLength     uint16
	ExtraFieldLength   uint16
	CommentLength      uint16
	DiskNumberStart    uint16
	InternalAttributes uint16
	ExternalAttributes uint32
	LocalHeaderOffset  uint32
}

type localFileHeader struct {
	Signature        uint32
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	FilenameLength   uint16
	ExtraFieldLength uint16
}

// Entry describes one central directory record
type Entry struct {
	Name              string
	Method            uint16
	Flags             uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	LocalHeaderOffset uint32
	Modified          time.Time
}

// IsDir reports whether the entry names a directory rather than a file.
func (e *Entry) IsDir() bool {
	return len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/'
}

// Location points at an entry's stored payload inside the archive buffer.
// Sizes and flags come from the local file header.
type Location struct {
	Offset           int64
	CompressedSize   uint32
	UncompressedSize uint32
	Method           uint16
	Flags            uint16
	CRC32            uint32
}

// msDosTimeToTime converts an MS-DOS date and time into a time.Time.
// The resolution is 2s.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0,
		time.UTC,
	)
}
