package format

// RecordIdentifier is the 32-bit big-endian tag prefixing every framed header/footer record.
// A decoder must reject a record whose on-disk identifier does not match the identifier
// expected for the type it is about to decode.
type RecordIdentifier uint32

const (
	IdentSegmentHeader              RecordIdentifier = 0x7A_53_48_31 // "zSH1"
	IdentSegmentFooter              RecordIdentifier = 0x7A_53_46_31 // "zSF1"
	IdentObjectHeader                RecordIdentifier = 0x7A_4F_48_31 // "zOH1"
	IdentObjectHeaderEncrypted       RecordIdentifier = 0x7A_4F_48_45 // "zOHE"
	IdentObjectFooterPhysical        RecordIdentifier = 0x7A_4F_46_50 // "zOFP"
	IdentObjectFooterPhysicalEncrypted RecordIdentifier = 0x7A_4F_70_45 // "zOpE"
	IdentObjectFooterLogical         RecordIdentifier = 0x7A_4F_46_4C // "zOFL"
	IdentObjectFooterLogicalEncrypted  RecordIdentifier = 0x7A_4F_6C_45 // "zOlE"
	IdentObjectFooterVirtual         RecordIdentifier = 0x7A_4F_46_56 // "zOFV"
	IdentObjectFooterVirtualEncrypted  RecordIdentifier = 0x7A_4F_76_45 // "zOvE"
	IdentFileHeader                  RecordIdentifier = 0x7A_46_48_31 // "zFH1"
	IdentFileHeaderEncrypted         RecordIdentifier = 0x7A_46_48_45 // "zFHE"
	IdentFileFooter                  RecordIdentifier = 0x7A_46_46_31 // "zFF1"
	IdentFileFooterEncrypted         RecordIdentifier = 0x7A_46_46_45 // "zFFE"
	IdentEncryptionHeader            RecordIdentifier = 0x7A_45_48_31 // "zEH1"
	IdentPBEHeader                   RecordIdentifier = 0x7A_50_42_31 // "zPB1"
	IdentCompressionHeader           RecordIdentifier = 0x7A_43_48_31 // "zCH1"
	IdentHashHeader                  RecordIdentifier = 0x7A_48_48_31 // "zHH1"
	IdentMainFooter                  RecordIdentifier = 0x7A_4D_46_31 // "zMF1"
	IdentVirtualLayer                RecordIdentifier = 0x7A_56_4C_31 // "zVL1"
	IdentVirtualMappingInformation   RecordIdentifier = 0x7A_56_4D_31 // "zVM1"
	IdentChunkOffsetMap              RecordIdentifier = 0x7A_43_4D_4F // "zCMO"
	IdentChunkSizeMap                RecordIdentifier = 0x7A_43_4D_53 // "zCMS"
	IdentChunkFlagsMap               RecordIdentifier = 0x7A_43_4D_46 // "zCMF"
	IdentChunkXxHashMap              RecordIdentifier = 0x7A_43_4D_58 // "zCMX"
	IdentChunkSameBytesMap           RecordIdentifier = 0x7A_43_4D_42 // "zCMB"
	IdentChunkDedupMap               RecordIdentifier = 0x7A_43_4D_44 // "zCMD"
)

// CurrentVersion is the version byte written by this implementation for every record type.
// Decoders reject any other version with zfferr.ErrUnsupportedVersion.
const CurrentVersion uint8 = 1
