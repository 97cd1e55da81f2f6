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

import (
	"fmt"
	"regexp"
	"strconv"
)

// CompletionCode is the first byte in the data field of all IPMI responses
type CompletionCode uint8

// Completion Codes per section 5.2
const (
	CommandCompleted     = CompletionCode(0x00)
	ErrNodeBusy          = CompletionCode(0xc0)
	ErrInvalidCommand    = CompletionCode(0xc1)
	ErrInvalidLunCommand = CompletionCode(0xc2)
	ErrCommandTimeout    = CompletionCode(0xc3)
	ErrOutOfSpace        = CompletionCode(0xc4)
	ErrInvalidResv       = CompletionCode(0xc5)
	ErrDataTruncated     = CompletionCode(0xc6)
	ErrShortPacket       = CompletionCode(0xc7)
	ErrLongPacket        = CompletionCode(0xc8)
	ErrParamRange        = CompletionCode(0xc9)
	ErrRequestData       = CompletionCode(0xca)
	ErrNoObj             = CompletionCode(0xcb)
	ErrInvalidPacket     = CompletionCode(0xcc)
	ErrInvalidObjCommand = CompletionCode(0xcd)
	ErrNoResponse        = CompletionCode(0xce)
	ErrDuplicateRequest  = CompletionCode(0xcf)
	ErrRepoUpMode        = CompletionCode(0xd0)
	ErrFirmwareUpMode    = CompletionCode(0xd1)
	ErrInitMode          = CompletionCode(0xd2)
	ErrDestUnavail       = CompletionCode(0xd3)
	ErrPrivLevel         = CompletionCode(0xd4)
	ErrInvalidState      = CompletionCode(0xd5)
	ErrCommandDisabled   = CompletionCode(0xd6)
	ErrUnspecified       = CompletionCode(0xff)
)

// Command specific completion codes returned by Intel Node Manager
const (
	ErrNmPolicyID           = CompletionCode(0x80)
	ErrNmDomainID           = CompletionCode(0x81)
	ErrNmTriggerType        = CompletionCode(0x82)
	ErrNmPowerLimit         = CompletionCode(0x84)
	ErrNmCorrectionTime     = CompletionCode(0x85)
	ErrNmTriggerValue       = CompletionCode(0x86)
	ErrNmMode               = CompletionCode(0x88)
	ErrNmReportingPeriod    = CompletionCode(0x89)
	ErrNmAggressiveCPU      = CompletionCode(0x8b)
	ErrNmNoPolicyIsLimiting = CompletionCode(0xa1)
)

var completionCodes = map[CompletionCode]string{
	CommandCompleted:     "Command completed normally",
	ErrNodeBusy:          "Node busy",
	ErrInvalidCommand:    "Unrecognized or unsupported command",
	ErrInvalidLunCommand: "Command invalid for given LUN",
	ErrCommandTimeout:    "Timeout while processing command",
	ErrOutOfSpace:        "Out of space",
	ErrInvalidResv:       "Reservation canceled or invalid reservation ID",
	ErrDataTruncated:     "Request data truncated",
	ErrShortPacket:       "Request data length invalid",
	ErrLongPacket:        "Request data field length limit exceeded",
	ErrParamRange:        "Parameter out of range",
	ErrRequestData:       "Cannot return number of requested data bytes",
	ErrNoObj:             "Requested sensor, data, or record not present",
	ErrInvalidPacket:     "Invalid data field in request",
	ErrInvalidObjCommand: "Command illegal for specified sensor or record type",
	ErrNoResponse:        "Command response could not be provided",
	ErrDuplicateRequest:  "Cannot execute duplicated request",
	ErrRepoUpMode:        "SDR repository in update mode",
	ErrFirmwareUpMode:    "Device in firmware update mode",
	ErrInitMode:          "BMC initialization or initialization agent running",
	ErrDestUnavail:       "Destination unavailable",
	ErrPrivLevel:         "Insufficient privilege level",
	ErrInvalidState:      "Command or param not supported in present state",
	ErrCommandDisabled:   "Command sub-function has been disabled or is unavailable",
	ErrUnspecified:       "Unspecified error",

	ErrNmPolicyID:           "Policy ID invalid",
	ErrNmDomainID:           "Domain ID invalid",
	ErrNmTriggerType:        "Unknown policy trigger type",
	ErrNmPowerLimit:         "Power limit out of range",
	ErrNmCorrectionTime:     "Correction time out of range",
	ErrNmTriggerValue:       "Policy trigger value out of range",
	ErrNmMode:               "Invalid mode",
	ErrNmReportingPeriod:    "Statistics reporting period out of range",
	ErrNmAggressiveCPU:      "Invalid value for aggressive CPU correction field",
	ErrNmNoPolicyIsLimiting: "No policy is currently limiting for the specified domain",
}

// ipmitool reports failed raw commands as "... rsp=0xc1): Invalid command"
var rspPattern = regexp.MustCompile(`rsp=0x([0-9a-fA-F]{1,2})`)

// Code returns the CompletionCode as uint8
func (c CompletionCode) Code() uint8 {
	return uint8(c)
}

// Error for CompletionCode
func (c CompletionCode) Error() string {
	if s, ok := completionCodes[c]; ok {
		return s
	}
	return fmt.Sprintf("Completion Code: %X", uint8(c))
}

// CompletionCodeFromString finds the completion code in ipmitool stderr output
func CompletionCodeFromString(s string) (CompletionCode, bool) {
	m := rspPattern.FindStringSubmatch(s)
	if m == nil {
		return CommandCompleted, false
	}
	n, err := strconv.ParseUint(m[1], 16, 8)
	if err != nil {
		return CommandCompleted, false
	}
	return CompletionCode(n), true
}
