package mtp

import "github.com/google/uuid"

// Property format identifiers.
var (
	objectPropertiesV1 = uuid.MustParse("EF6B490D-5CD8-437A-AFFC-DA8B60EE4A3C")
	clientInfoV1       = uuid.MustParse("204D9F0C-2292-4080-9F42-40664E70F859")
	resourceDefault    = uuid.MustParse("E81E79BE-34F0-41BF-B53F-F1A06AE87842")
)

// Object properties.
var (
	KeyObjectID               = PropertyKey{objectPropertiesV1, 2}
	KeyObjectParentID         = PropertyKey{objectPropertiesV1, 3}
	KeyObjectName             = PropertyKey{objectPropertiesV1, 4}
	KeyObjectPersistentID     = PropertyKey{objectPropertiesV1, 5}
	KeyObjectFormat           = PropertyKey{objectPropertiesV1, 6}
	KeyObjectContentType      = PropertyKey{objectPropertiesV1, 7}
	KeyObjectIsHidden         = PropertyKey{objectPropertiesV1, 9}
	KeyObjectSize             = PropertyKey{objectPropertiesV1, 11}
	KeyObjectOriginalFileName = PropertyKey{objectPropertiesV1, 12}
	KeyObjectDateCreated      = PropertyKey{objectPropertiesV1, 18}
	KeyObjectDateModified     = PropertyKey{objectPropertiesV1, 19}
	KeyObjectCanDelete        = PropertyKey{objectPropertiesV1, 26}
)

// Client information properties presented when a session is opened.
var (
	KeyClientName                     = PropertyKey{clientInfoV1, 2}
	KeyClientMajorVersion             = PropertyKey{clientInfoV1, 3}
	KeyClientMinorVersion             = PropertyKey{clientInfoV1, 4}
	KeyClientRevision                 = PropertyKey{clientInfoV1, 5}
	KeyClientSecurityQualityOfService = PropertyKey{clientInfoV1, 8}
	KeyClientDesiredAccess            = PropertyKey{clientInfoV1, 9}
)

// KeyResourceDefault names an object's primary data resource.
var KeyResourceDefault = PropertyKey{resourceDefault, 0}

var keyNames = map[PropertyKey]string{
	KeyObjectID:                       "object.id",
	KeyObjectParentID:                 "object.parent_id",
	KeyObjectName:                     "object.name",
	KeyObjectPersistentID:             "object.persistent_id",
	KeyObjectFormat:                   "object.format",
	KeyObjectContentType:              "object.content_type",
	KeyObjectIsHidden:                 "object.is_hidden",
	KeyObjectSize:                     "object.size",
	KeyObjectOriginalFileName:         "object.original_file_name",
	KeyObjectDateCreated:              "object.date_created",
	KeyObjectDateModified:             "object.date_modified",
	KeyObjectCanDelete:                "object.can_delete",
	KeyClientName:                     "client.name",
	KeyClientMajorVersion:             "client.major_version",
	KeyClientMinorVersion:             "client.minor_version",
	KeyClientRevision:                 "client.revision",
	KeyClientSecurityQualityOfService: "client.security_qos",
	KeyClientDesiredAccess:            "client.desired_access",
	KeyResourceDefault:                "resource.default",
}

// PropertyKeyByName looks up a well-known key by its short name, as printed
// by PropertyKey.String.
func PropertyKeyByName(name string) (PropertyKey, bool) {
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return PropertyKey{}, false
}
