package mtp

import (
	"strings"

	"github.com/google/uuid"
)

// ContentType is the content category of an object.
type ContentType int

const (
	ContentTypeUnknown ContentType = iota
	ContentTypeAll
	ContentTypeAppointment
	ContentTypeAudio
	ContentTypeAudioAlbum
	ContentTypeCalendar
	ContentTypeCertificate
	ContentTypeContact
	ContentTypeContactGroup
	ContentTypeDocument
	ContentTypeEmail
	ContentTypeFolder
	ContentTypeFunctionalObject
	ContentTypeGenericFile
	ContentTypeGenericMessage
	ContentTypeImage
	ContentTypeImageAlbum
	ContentTypeMediaCast
	ContentTypeMemo
	ContentTypeMixedContentAlbum
	ContentTypeNetworkAssociation
	ContentTypePlaylist
	ContentTypeProgram
	ContentTypeSection
	ContentTypeTask
	ContentTypeTelevision
	ContentTypeUnspecified
	ContentTypeVideo
	ContentTypeVideoAlbum
	ContentTypeWirelessProfile
)

type contentTypeInfo struct {
	name string
	guid uuid.UUID
}

var contentTypes = map[ContentType]contentTypeInfo{
	ContentTypeAll:                {"All", uuid.MustParse("80E170D2-1055-4A3E-B952-82CC4F8A8689")},
	ContentTypeAppointment:        {"Appointment", uuid.MustParse("0FED060E-8793-4B1E-90C9-48AC389AC631")},
	ContentTypeAudio:              {"Audio", uuid.MustParse("4AD2C85E-5E2D-45E5-8864-4F229E3C6CF0")},
	ContentTypeAudioAlbum:         {"AudioAlbum", uuid.MustParse("AA18737E-5009-48FA-AE21-85F24383B4E6")},
	ContentTypeCalendar:           {"Calendar", uuid.MustParse("A1FD5967-6023-49A0-9DF1-F8060BE751B0")},
	ContentTypeCertificate:        {"Certificate", uuid.MustParse("DC3876E8-A948-4060-9050-CBD77E8A3D87")},
	ContentTypeContact:            {"Contact", uuid.MustParse("EABA8313-4525-4707-9F0E-87C6808E9435")},
	ContentTypeContactGroup:       {"ContactGroup", uuid.MustParse("346B8932-4C36-40D8-9415-1828291F9DE9")},
	ContentTypeDocument:           {"Document", uuid.MustParse("680ADF52-950A-4041-9B41-65E393648155")},
	ContentTypeEmail:              {"Email", uuid.MustParse("8038044A-7E51-4F8F-883D-1D0623D14533")},
	ContentTypeFolder:             {"Folder", uuid.MustParse("27E2E392-A111-48E0-AB0C-E17705A05F85")},
	ContentTypeFunctionalObject:   {"FunctionalObject", uuid.MustParse("99ED0160-17FF-4C44-9D98-1D7A6F941921")},
	ContentTypeGenericFile:        {"GenericFile", uuid.MustParse("0085E0A6-8D34-45D7-BC5C-447E59C73D48")},
	ContentTypeGenericMessage:     {"GenericMessage", uuid.MustParse("E80EAAF8-B2DB-4133-B67E-1BEF4B4A6E5F")},
	ContentTypeImage:              {"Image", uuid.MustParse("EF2107D5-A52A-4243-A26B-62D4176D7603")},
	ContentTypeImageAlbum:         {"ImageAlbum", uuid.MustParse("75793148-15F5-4A30-A813-54ED8A37E226")},
	ContentTypeMediaCast:          {"MediaCast", uuid.MustParse("5E88B3CC-3E65-4E62-BFFF-229495253AB0")},
	ContentTypeMemo:               {"Memo", uuid.MustParse("9CD20ECF-3B50-414F-A641-E473FFE45751")},
	ContentTypeMixedContentAlbum:  {"MixedContentAlbum", uuid.MustParse("00F0C3AC-A593-49AC-9219-24ABCA5A2563")},
	ContentTypeNetworkAssociation: {"NetworkAssociation", uuid.MustParse("031DA7EE-18C8-4205-847E-89A11261D0F3")},
	ContentTypePlaylist:           {"Playlist", uuid.MustParse("1A33F7E4-AF13-48F5-994E-77369DFE04A3")},
	ContentTypeProgram:            {"Program", uuid.MustParse("D269F96A-247C-4BFF-98FB-97F3C49220E6")},
	ContentTypeSection:            {"Section", uuid.MustParse("821089F5-1D91-4DC9-BE3C-BBB1B35B18CE")},
	ContentTypeTask:               {"Task", uuid.MustParse("63252F2C-887F-4CB6-B1AC-D29855DCEF6C")},
	ContentTypeTelevision:         {"Television", uuid.MustParse("60A169CF-F2AE-4E21-9375-9677F11C1C6E")},
	ContentTypeUnspecified:        {"Unspecified", uuid.MustParse("28D8D31E-249C-454E-AABC-34883168E634")},
	ContentTypeVideo:              {"Video", uuid.MustParse("9261B03C-3D78-4519-85E3-02C5E1F50BB9")},
	ContentTypeVideoAlbum:         {"VideoAlbum", uuid.MustParse("012B0DB7-D4C1-45D6-B081-94B87779614F")},
	ContentTypeWirelessProfile:    {"WirelessProfile", uuid.MustParse("0BAC070A-9F5F-4DA4-A8F6-3DE44D68FD6C")},
}

var contentTypesByGUID = func() map[uuid.UUID]ContentType {
	m := make(map[uuid.UUID]ContentType, len(contentTypes))
	for ct, info := range contentTypes {
		m[info.guid] = ct
	}
	return m
}()

// ContentTypeFromGUID maps a device type tag to a ContentType. Tags this
// package does not know map to ContentTypeUnknown.
func ContentTypeFromGUID(g uuid.UUID) ContentType {
	if ct, ok := contentTypesByGUID[g]; ok {
		return ct
	}
	return ContentTypeUnknown
}

// GUID returns the device type tag. ContentTypeUnknown has the nil GUID.
func (c ContentType) GUID() uuid.UUID {
	return contentTypes[c].guid
}

// String returns the type name.
func (c ContentType) String() string {
	if info, ok := contentTypes[c]; ok {
		return info.name
	}
	return "Unknown"
}

// ParseContentType parses a type name case-insensitively.
func ParseContentType(s string) (ContentType, bool) {
	for ct, info := range contentTypes {
		if strings.EqualFold(info.name, s) {
			return ct, true
		}
	}
	if strings.EqualFold(s, "Unknown") {
		return ContentTypeUnknown, true
	}
	return ContentTypeUnknown, false
}

// IsFileLike reports whether objects of this type carry data rather than
// grouping other objects.
func (c ContentType) IsFileLike() bool {
	switch c {
	case ContentTypeFolder,
		ContentTypeFunctionalObject,
		ContentTypeAudioAlbum,
		ContentTypeImageAlbum,
		ContentTypeVideoAlbum,
		ContentTypeMixedContentAlbum,
		ContentTypeContactGroup:
		return false
	default:
		return true
	}
}

// IsContainer reports whether objects of this type may have children
// addressable by path. Albums are excluded: their members live elsewhere.
func (c ContentType) IsContainer() bool {
	return c == ContentTypeFolder || c == ContentTypeFunctionalObject
}
