// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import "strconv"

const versionLen = responseHeaderLen + 5

// Version is the response data of Get Version
type Version struct {
	NM       string `json:"nm" yaml:"nm"`
	IPMI     string `json:"ipmi" yaml:"ipmi"`
	Patch    string `json:"patch" yaml:"patch"`
	Firmware string `json:"firmware" yaml:"firmware"`
}

// GetVersion returns the raw Get Version command
func GetVersion() []string {
	return request(CommandGetVersion).Strings()
}

// ParseVersion decodes the response of Get Version.
// Unknown version codes are reported as "unknown".
func ParseVersion(rsp []string) (*Version, error) {
	d := newDecoder(CommandName(CommandGetVersion), rsp, versionLen)
	if err := d.err(); err != nil {
		return nil, err
	}

	v := &Version{
		NM:       versionString(nmVersions, d.u8(3)),
		IPMI:     versionString(ipmiVersions, d.u8(4)),
		Patch:    strconv.Itoa(int(d.u8(5))),
		Firmware: strconv.Itoa(int(d.u8(6))) + "." + strconv.Itoa(int(d.u8(7))),
	}
	return v, nil
}

func versionString(table map[uint8]string, code uint8) string {
	if s, ok := table[code]; ok {
		return s
	}
	return unknownVersion
}
