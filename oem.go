/*
Copyright (c) 2014 VMware, Inc. All Rights Reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipmi

import "fmt"

// OemID aka IANA assigned Enterprise Number per:
// http://www.iana.org/assignments/enterprise-numbers/enterprise-numbers
// OEM group commands (netfn 2Eh) carry it as a 3 byte field, LS byte first.
type OemID uint32

// IANA assigned manufacturer IDs
const (
	OemUnknown    = OemID(0)
	OemHP         = OemID(11)
	OemIntel      = OemID(343)
	OemDell       = OemID(674)
	OemSupermicro = OemID(10876)
	OemQuanta     = OemID(7244)
	OemLenovo     = OemID(19046)
	OemInspur     = OemID(37945)
)

var oemStrings = map[OemID]string{
	OemUnknown:    "Unknown",
	OemHP:         "Hewlett-Packard",
	OemIntel:      "Intel Corporation",
	OemDell:       "Dell Inc",
	OemSupermicro: "Supermicro",
	OemQuanta:     "Quanta",
	OemLenovo:     "Lenovo",
	OemInspur:     "Inspur",
}

// OemIDLen is the wire size of an OEM group manufacturer ID
const OemIDLen = 3

func (id OemID) String() string {
	if s, ok := oemStrings[id]; ok {
		return s
	}
	return fmt.Sprintf("Unknown (%d)", id)
}

// Bytes returns the manufacturer ID as carried in OEM group messages
func (id OemID) Bytes() []byte {
	return []byte{
		byte(id),
		byte(id >> 8),
		byte(id >> 16),
	}
}

// OemIDFromBytes reads a 3 byte manufacturer ID, LS byte first
func OemIDFromBytes(buf []byte) (OemID, error) {
	if len(buf) < OemIDLen {
		return OemUnknown, ErrShortPacket
	}
	return OemID(buf[0]) | OemID(buf[1])<<8 | OemID(buf[2])<<16, nil
}
