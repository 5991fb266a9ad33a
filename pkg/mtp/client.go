package mtp

import "fmt"

// securityImpersonation is the quality-of-service level devices expect from
// an ordinary client.
const securityImpersonation uint32 = 0x00020000

// ClientInfo identifies the application opening a session. Callers build it
// from their own version data.
type ClientInfo struct {
	Name     string
	Major    uint32
	Minor    uint32
	Revision uint32
}

// String returns "name major.minor.revision".
func (c ClientInfo) String() string {
	return fmt.Sprintf("%s %d.%d.%d", c.Name, c.Major, c.Minor, c.Revision)
}

// Values builds the client information bag presented when opening a session.
func (c ClientInfo) Values() *PropertyBag {
	return NewPropertyBag().
		SetString(KeyClientName, c.Name).
		SetUint32(KeyClientMajorVersion, c.Major).
		SetUint32(KeyClientMinorVersion, c.Minor).
		SetUint32(KeyClientRevision, c.Revision).
		SetUint32(KeyClientSecurityQualityOfService, securityImpersonation)
}

// ClientInfoFromValues reads a client information bag back. Drivers use it to
// log who opened a session.
func ClientInfoFromValues(b *PropertyBag) (ClientInfo, error) {
	var (
		c   ClientInfo
		err error
	)
	if c.Name, err = b.String(KeyClientName); err != nil {
		return c, err
	}
	if c.Major, err = b.Uint32(KeyClientMajorVersion); err != nil {
		return c, err
	}
	if c.Minor, err = b.Uint32(KeyClientMinorVersion); err != nil {
		return c, err
	}
	c.Revision, err = b.Uint32(KeyClientRevision)
	return c, err
}
