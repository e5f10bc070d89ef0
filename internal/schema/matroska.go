package schema

// Element IDs below are the Matroska/WebM assignments used throughout
// the ecosystem; the numeric values are the same ones a plain EBML/
// Matroska parser keys its switch statement on.
const (
	idEBMLHeader             = 0x1A45DFA3
	idEBMLVersion            = 0x4286
	idEBMLReadVersion        = 0x42F7
	idEBMLMaxIDLength        = 0x42F2
	idEBMLMaxSizeLength      = 0x42F3
	idEBMLDocType            = 0x4282
	idEBMLDocTypeVersion     = 0x4287
	idEBMLDocTypeReadVersion = 0x4285

	idSegment = 0x18538067

	idSeekHead = 0x114D9B74
	idSeek     = 0x4DBB
	idSeekID   = 0x53AB
	idSeekPos  = 0x53AC

	idSegmentInfo     = 0x1549A966
	idSegmentUID      = 0x73A4
	idSegmentFilename = 0x7384
	idPrevUID         = 0x3CB923
	idPrevFilename    = 0x3C83AB
	idNextUID         = 0x3EB923
	idNextFilename    = 0x3E83BB
	idTimestampScale  = 0x2AD7B1
	idDuration        = 0x4489
	idDateUTC         = 0x4461
	idTitle           = 0x7BA9
	idMuxingApp       = 0x4D80
	idWritingApp      = 0x5741

	idTracks     = 0x1654AE6B
	idTrackEntry = 0xAE
	idTrackNum   = 0xD7
	idTrackUID   = 0x73C5
	idTrackType  = 0x83
	idTrackName  = 0x536E
	idLanguage   = 0x22B59C
	idCodecID    = 0x86
	idCodecPriv  = 0x63A2
	idCodecName  = 0x258688
	idVideo      = 0xE0
	idAudio      = 0xE1

	idFlagInterlaced = 0x9A
	idPixelWidth     = 0xB0
	idPixelHeight    = 0xBA
	idDisplayWidth   = 0x54B0
	idDisplayHeight  = 0x54BA

	idSamplingFrequency       = 0xB5
	idOutputSamplingFrequency = 0x78B5
	idChannels                = 0x9F
	idBitDepth                = 0x6264

	idCluster     = 0x1F43B675
	idTimestamp   = 0xE7
	idSimpleBlock = 0xA3
	idBlockGroup  = 0xA0
	idBlock       = 0xA1
	idBlockDuration = 0x9B

	idCues     = 0x1C53BB6B
	idCuePoint = 0xBB
	idCueTime  = 0xB3
	idCueTrackPositions = 0xB7
	idCueTrack = 0xF7
	idCueClusterPosition = 0xF1

	idChapters = 0x1043A770
	idTags     = 0x1254C367

	idAttachments    = 0x1941A469
	idAttachedFile   = 0x61A7
	idFileDescription = 0x467E
	idFileName       = 0x466E
	idFileMimeType   = 0x4660
	idFileData       = 0x465C
	idFileUID        = 0x46AE

	idVoid = 0xEC
	idCRC32 = 0xBF
)

var matroskaTags = []*Tag{
	{ID: idEBMLHeader, Name: "EBML", Variant: Master, Mandatory: true},
	{ID: idEBMLVersion, Name: "EBMLVersion", Variant: Unsigned, Parents: []uint32{idEBMLHeader}, Default: uint64(1)},
	{ID: idEBMLReadVersion, Name: "EBMLReadVersion", Variant: Unsigned, Parents: []uint32{idEBMLHeader}, Default: uint64(1)},
	{ID: idEBMLMaxIDLength, Name: "EBMLMaxIDLength", Variant: Unsigned, Parents: []uint32{idEBMLHeader}, Default: uint64(4)},
	{ID: idEBMLMaxSizeLength, Name: "EBMLMaxSizeLength", Variant: Unsigned, Parents: []uint32{idEBMLHeader}, Default: uint64(8)},
	{ID: idEBMLDocType, Name: "DocType", Variant: AsciiString, Parents: []uint32{idEBMLHeader}, Mandatory: true, Default: "matroska"},
	{ID: idEBMLDocTypeVersion, Name: "DocTypeVersion", Variant: Unsigned, Parents: []uint32{idEBMLHeader}, Default: uint64(1)},
	{ID: idEBMLDocTypeReadVersion, Name: "DocTypeReadVersion", Variant: Unsigned, Parents: []uint32{idEBMLHeader}, Default: uint64(1)},

	{ID: idSegment, Name: "Segment", Variant: Master, Mandatory: true, Multiple: true},

	{ID: idSeekHead, Name: "SeekHead", Variant: Master, Parents: []uint32{idSegment}, Multiple: true},
	{ID: idSeek, Name: "Seek", Variant: Master, Parents: []uint32{idSeekHead}, Multiple: true},
	{ID: idSeekID, Name: "SeekID", Variant: Binary, Parents: []uint32{idSeek}, Mandatory: true},
	{ID: idSeekPos, Name: "SeekPosition", Variant: Unsigned, Parents: []uint32{idSeek}, Mandatory: true},

	{ID: idSegmentInfo, Name: "Info", Variant: Master, Parents: []uint32{idSegment}, Mandatory: true},
	{ID: idSegmentUID, Name: "SegmentUID", Variant: Binary, Parents: []uint32{idSegmentInfo}, DataSizeMin: 16, HasMinVal: true, MinVal: 1},
	{ID: idSegmentFilename, Name: "SegmentFilename", Variant: Utf8String, Parents: []uint32{idSegmentInfo}},
	{ID: idPrevUID, Name: "PrevUID", Variant: Binary, Parents: []uint32{idSegmentInfo}, DataSizeMin: 16, HasMinVal: true, MinVal: 1},
	{ID: idPrevFilename, Name: "PrevFilename", Variant: Utf8String, Parents: []uint32{idSegmentInfo}},
	{ID: idNextUID, Name: "NextUID", Variant: Binary, Parents: []uint32{idSegmentInfo}, DataSizeMin: 16, HasMinVal: true, MinVal: 1},
	{ID: idNextFilename, Name: "NextFilename", Variant: Utf8String, Parents: []uint32{idSegmentInfo}},
	{ID: idTimestampScale, Name: "TimestampScale", Variant: Unsigned, Parents: []uint32{idSegmentInfo}, Mandatory: true, Default: uint64(1000000)},
	{ID: idDuration, Name: "Duration", Variant: Float, Parents: []uint32{idSegmentInfo}},
	{ID: idDateUTC, Name: "DateUTC", Variant: Date, Parents: []uint32{idSegmentInfo}},
	{ID: idTitle, Name: "Title", Variant: Utf8String, Parents: []uint32{idSegmentInfo}},
	{ID: idMuxingApp, Name: "MuxingApp", Variant: Utf8String, Parents: []uint32{idSegmentInfo}, Mandatory: true},
	{ID: idWritingApp, Name: "WritingApp", Variant: Utf8String, Parents: []uint32{idSegmentInfo}, Mandatory: true},

	{ID: idTracks, Name: "Tracks", Variant: Master, Parents: []uint32{idSegment}},
	{ID: idTrackEntry, Name: "TrackEntry", Variant: Master, Parents: []uint32{idTracks}, Mandatory: true, Multiple: true},
	{ID: idTrackNum, Name: "TrackNumber", Variant: Unsigned, Parents: []uint32{idTrackEntry}, Mandatory: true, HasMinVal: true, MinVal: 1},
	{ID: idTrackUID, Name: "TrackUID", Variant: Unsigned, Parents: []uint32{idTrackEntry}, Mandatory: true, HasMinVal: true, MinVal: 1},
	{ID: idTrackType, Name: "TrackType", Variant: Unsigned, Parents: []uint32{idTrackEntry}, Mandatory: true},
	{ID: idTrackName, Name: "Name", Variant: Utf8String, Parents: []uint32{idTrackEntry}},
	{ID: idLanguage, Name: "Language", Variant: AsciiString, Parents: []uint32{idTrackEntry}, Default: "eng"},
	{ID: idCodecID, Name: "CodecID", Variant: AsciiString, Parents: []uint32{idTrackEntry}, Mandatory: true},
	{ID: idCodecPriv, Name: "CodecPrivate", Variant: Binary, Parents: []uint32{idTrackEntry}},
	{ID: idCodecName, Name: "CodecName", Variant: Utf8String, Parents: []uint32{idTrackEntry}},
	{ID: idVideo, Name: "Video", Variant: Master, Parents: []uint32{idTrackEntry}},
	{ID: idAudio, Name: "Audio", Variant: Master, Parents: []uint32{idTrackEntry}},

	{ID: idFlagInterlaced, Name: "FlagInterlaced", Variant: Boolean, Parents: []uint32{idVideo}},
	{ID: idPixelWidth, Name: "PixelWidth", Variant: Unsigned, Parents: []uint32{idVideo}, Mandatory: true},
	{ID: idPixelHeight, Name: "PixelHeight", Variant: Unsigned, Parents: []uint32{idVideo}, Mandatory: true},
	{ID: idDisplayWidth, Name: "DisplayWidth", Variant: Unsigned, Parents: []uint32{idVideo}},
	{ID: idDisplayHeight, Name: "DisplayHeight", Variant: Unsigned, Parents: []uint32{idVideo}},

	{ID: idSamplingFrequency, Name: "SamplingFrequency", Variant: Float, Parents: []uint32{idAudio}, Default: 8000.0},
	{ID: idOutputSamplingFrequency, Name: "OutputSamplingFrequency", Variant: Float, Parents: []uint32{idAudio}},
	{ID: idChannels, Name: "Channels", Variant: Unsigned, Parents: []uint32{idAudio}, Default: uint64(1)},
	{ID: idBitDepth, Name: "BitDepth", Variant: Unsigned, Parents: []uint32{idAudio}},

	// Cluster is the bulk media payload region: the engine never
	// interprets its children (that's compressed-frame decoding, an
	// explicit non-goal), so the core recognizes it by ID and
	// instantiates it as an immovable Placeholder in every read mode
	// rather than descending into SimpleBlock/BlockGroup.
	{ID: idCluster, Name: "Cluster", Variant: Master, Parents: []uint32{idSegment}, Multiple: true},
	{ID: idTimestamp, Name: "Timestamp", Variant: Unsigned, Parents: []uint32{idCluster}, Mandatory: true},
	{ID: idSimpleBlock, Name: "SimpleBlock", Variant: Binary, Parents: []uint32{idCluster}, Multiple: true},
	{ID: idBlockGroup, Name: "BlockGroup", Variant: Master, Parents: []uint32{idCluster}, Multiple: true},
	{ID: idBlock, Name: "Block", Variant: Binary, Parents: []uint32{idBlockGroup}, Mandatory: true},
	{ID: idBlockDuration, Name: "BlockDuration", Variant: Unsigned, Parents: []uint32{idBlockGroup}},

	{ID: idCues, Name: "Cues", Variant: MasterDefer, Parents: []uint32{idSegment}},
	{ID: idCuePoint, Name: "CuePoint", Variant: Master, Parents: []uint32{idCues}, Mandatory: true, Multiple: true},
	{ID: idCueTime, Name: "CueTime", Variant: Unsigned, Parents: []uint32{idCuePoint}, Mandatory: true},
	{ID: idCueTrackPositions, Name: "CueTrackPositions", Variant: Master, Parents: []uint32{idCuePoint}, Mandatory: true, Multiple: true},
	{ID: idCueTrack, Name: "CueTrack", Variant: Unsigned, Parents: []uint32{idCueTrackPositions}, Mandatory: true},
	{ID: idCueClusterPosition, Name: "CueClusterPosition", Variant: Unsigned, Parents: []uint32{idCueTrackPositions}, Mandatory: true},

	{ID: idChapters, Name: "Chapters", Variant: MasterDefer, Parents: []uint32{idSegment}},
	{ID: idTags, Name: "Tags", Variant: MasterDefer, Parents: []uint32{idSegment}, Multiple: true},

	{ID: idAttachments, Name: "Attachments", Variant: Master, Parents: []uint32{idSegment}},
	{ID: idAttachedFile, Name: "AttachedFile", Variant: Master, Parents: []uint32{idAttachments}, Mandatory: true, Multiple: true},
	{ID: idFileDescription, Name: "FileDescription", Variant: Utf8String, Parents: []uint32{idAttachedFile}},
	{ID: idFileName, Name: "FileName", Variant: Utf8String, Parents: []uint32{idAttachedFile}, Mandatory: true},
	{ID: idFileMimeType, Name: "FileMimeType", Variant: AsciiString, Parents: []uint32{idAttachedFile}, Mandatory: true},
	{ID: idFileData, Name: "FileData", Variant: Binary, Parents: []uint32{idAttachedFile}, Mandatory: true},
	{ID: idFileUID, Name: "FileUID", Variant: Unsigned, Parents: []uint32{idAttachedFile}, Mandatory: true},

	{ID: idVoid, Name: "Void", Variant: Void, Global: true, Multiple: true},
	{ID: idCRC32, Name: "CRC-32", Variant: Binary, Global: true},
}

// Matroska is the built-in schema table covering the Matroska/WebM
// elements this engine knows how to edit: the EBML header, Segment and
// its direct metadata children (SeekHead, Info, Tracks, Attachments,
// Chapters, Tags, Cues) plus Cluster, which is recognized structurally
// but never descended into.
var Matroska = NewTable(matroskaTags)

// ClusterID, CuesID, SeekHeadID, VoidID, SegmentID and EBMLHeaderID are
// exported since the core engine's Segment normalizer treats these
// specific elements specially (immovable regions, rebuilt index,
// deleted-and-regenerated padding) regardless of which schema.Table a
// caller supplies.
const (
	ClusterID      = idCluster
	CuesID         = idCues
	SeekHeadID     = idSeekHead
	SeekID         = idSeek
	SeekIDFieldID  = idSeekID
	SeekPosFieldID = idSeekPos
	VoidID         = idVoid
	SegmentID      = idSegment
	EBMLHeaderID   = idEBMLHeader
	SegmentInfoID  = idSegmentInfo
	TracksID       = idTracks
)
