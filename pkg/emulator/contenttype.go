package emulator

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/mtpfs/pkg/mtp"
)

// extensionTypes maps lower-case file extensions to the content type a media
// device assigns to uploaded files.
var extensionTypes = map[string]mtp.ContentType{
	".m3u":  mtp.ContentTypePlaylist,
	".m3u8": mtp.ContentTypePlaylist,
	".pls":  mtp.ContentTypePlaylist,
	".wpl":  mtp.ContentTypePlaylist,
	".mp3":  mtp.ContentTypeAudio,
	".m4a":  mtp.ContentTypeAudio,
	".aac":  mtp.ContentTypeAudio,
	".flac": mtp.ContentTypeAudio,
	".ogg":  mtp.ContentTypeAudio,
	".wav":  mtp.ContentTypeAudio,
	".wma":  mtp.ContentTypeAudio,
	".jpg":  mtp.ContentTypeImage,
	".jpeg": mtp.ContentTypeImage,
	".png":  mtp.ContentTypeImage,
	".gif":  mtp.ContentTypeImage,
	".bmp":  mtp.ContentTypeImage,
	".heic": mtp.ContentTypeImage,
	".mp4":  mtp.ContentTypeVideo,
	".mov":  mtp.ContentTypeVideo,
	".avi":  mtp.ContentTypeVideo,
	".mkv":  mtp.ContentTypeVideo,
	".wmv":  mtp.ContentTypeVideo,
	".txt":  mtp.ContentTypeDocument,
	".pdf":  mtp.ContentTypeDocument,
	".doc":  mtp.ContentTypeDocument,
	".docx": mtp.ContentTypeDocument,
	".vcf":  mtp.ContentTypeContact,
	".ics":  mtp.ContentTypeCalendar,
	".apk":  mtp.ContentTypeProgram,
}

// InferContentType returns the content type for a file name. Unknown
// extensions map to GenericFile.
func InferContentType(name string) mtp.ContentType {
	if ct, ok := extensionTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return mtp.ContentTypeGenericFile
}

// mimeTypes maps detected MIME types to content types. Entries are checked in
// order against the detected type and its parents, so specific types come
// before the families that contain them.
var mimeTypes = []struct {
	mime string
	ct   mtp.ContentType
}{
	{"application/vnd.apple.mpegurl", mtp.ContentTypePlaylist},
	{"text/vcard", mtp.ContentTypeContact},
	{"text/calendar", mtp.ContentTypeCalendar},
	{"application/vnd.android.package-archive", mtp.ContentTypeProgram},
	{"application/pdf", mtp.ContentTypeDocument},
	{"text/plain", mtp.ContentTypeDocument},
}

// SniffContentType classifies data by its detected MIME type. Data that fits
// no category maps to GenericFile.
func SniffContentType(data []byte) mtp.ContentType {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		for _, e := range mimeTypes {
			if m.Is(e.mime) {
				return e.ct
			}
		}
		switch family, _, _ := strings.Cut(m.String(), "/"); family {
		case "audio":
			return mtp.ContentTypeAudio
		case "image":
			return mtp.ContentTypeImage
		case "video":
			return mtp.ContentTypeVideo
		}
	}
	return mtp.ContentTypeGenericFile
}
