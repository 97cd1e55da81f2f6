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

package nm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	ipmi "github.com/vmware/goipmi-nm"
)

// Handler answers a Node Manager command. data and the returned response
// exclude the Intel manufacturer ID. Errors should be ipmi.CompletionCode.
type Handler func(data []byte) ([]byte, error)

type policyKey struct {
	domain uint8
	policy uint8
}

type simPolicy struct {
	enabled bool
	flags   uint8
	action  uint8
	values  [policyValuesLen]byte
	suspend []byte
}

// Simulator is an in-memory Intel Node Manager behind a BMC.
// It implements ipmi.Transport.
type Simulator struct {
	// Node Manager slave address and channel as listed in the SDR
	Address uint8
	Channel uint8
	// Clock is used for statistics timestamps
	Clock func() time.Time

	mu       sync.Mutex
	handlers map[ipmi.Command]Handler
	sdr      bool
	dumps    int
	sent     []*ipmi.Request

	globalEnabled  bool
	domainDisabled map[uint8]bool
	policies       map[policyKey]*simPolicy
	readings       [4]uint16
	resetAt        time.Time
}

// simulated readings and limits
var (
	simVersion      = []byte{0x05, 0x03, 0x07, 0x01, 0x02}
	simMaxPolicies  = uint8(16)
	simLimits       = [2]uint16{4096, 0}
	simCorrection   = [2]uint32{1000, 600000}
	simReporting    = [2]uint16{1, 3600}
	simReadings     = [4]uint16{180, 120, 320, 210}
	simDumpFiller   = []byte{0x01, 0x00, 0x51, 0x01, 0x05, 0x20, 0x00, 0x01, 0x07, 0x01}
	simRecordHeader = []byte{0x02, 0x00, 0x51, 0xc0, 0x0a}
)

// NewSimulator creates a Simulator with Node Manager at channel 6, address 2Ch
func NewSimulator() *Simulator {
	s := &Simulator{
		Address:        0x2c,
		Channel:        0x06,
		Clock:          time.Now,
		sdr:            true,
		globalEnabled:  true,
		domainDisabled: map[uint8]bool{},
		policies:       map[policyKey]*simPolicy{},
		readings:       simReadings,
	}
	s.resetAt = s.Clock()

	s.handlers = map[ipmi.Command]Handler{
		CommandPolicyControl:   s.control,
		CommandSetPolicy:       s.setPolicy,
		CommandGetPolicy:       s.getPolicy,
		CommandSetSuspend:      s.setSuspend,
		CommandGetSuspend:      s.getSuspend,
		CommandResetStatistics: s.resetStatistics,
		CommandGetStatistics:   s.getStatistics,
		CommandGetCapabilities: s.capabilities,
		CommandGetVersion:      s.version,
	}

	return s
}

// SetHandler replaces the handler for the given command
func (s *Simulator) SetHandler(command ipmi.Command, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[command] = handler
}

// RemoveSDRRecord drops the Node Manager discovery record from SDR dumps
func (s *Simulator) RemoveSDRRecord() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sdr = false
}

// SlaveAddress is what ScanSlaveAddress finds in the dump of s
func (s *Simulator) SlaveAddress() SlaveAddress {
	return SlaveAddress{
		Address: fmt.Sprintf("0x%02x", s.Address),
		Channel: fmt.Sprintf("0x%02x", s.Channel),
	}
}

// Dumps returns the number of SDR dumps taken
func (s *Simulator) Dumps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dumps
}

// Sent returns all requests received by SendRaw
func (s *Simulator) Sent() []*ipmi.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ipmi.Request(nil), s.sent...)
}

// DumpSDR writes an SDR repository with a sensor record and, unless
// removed, the Node Manager discovery record.
func (s *Simulator) DumpSDR(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dumps++

	var buf bytes.Buffer
	buf.Write(simDumpFiller)
	if s.sdr {
		buf.Write(simRecordHeader)
		buf.Write(ipmi.OemIntel.Bytes())
		buf.Write([]byte{0x0d, 0x01, s.Address, s.Channel << 4, 0x00, 0x00, 0x00})
	}

	return os.WriteFile(path, buf.Bytes(), 0600)
}

// SendRaw handles a raw request the way ipmitool would return it:
// lower case hex tokens without the completion code.
func (s *Simulator) SendRaw(ctx context.Context, bridge *ipmi.Bridge, cmd []string) ([]string, error) {
	req, err := ipmi.RequestFromStrings(cmd)
	if err != nil {
		return nil, ipmi.ErrInvalidPacket
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)

	if bridge == nil || *bridge != *s.SlaveAddress().Bridge() {
		// the BMC itself does not implement Node Manager commands
		return nil, ipmi.ErrInvalidCommand
	}

	if req.NetworkFunction != ipmi.NetworkFunctionOEMGroup {
		return nil, ipmi.ErrInvalidCommand
	}
	id, err := ipmi.OemIDFromBytes(req.Data)
	if err != nil {
		return nil, err
	}
	if id != ipmi.OemIntel {
		return nil, ipmi.ErrInvalidPacket
	}

	handler, ok := s.handlers[req.Command]
	if !ok {
		return nil, ipmi.ErrInvalidCommand
	}

	data, err := handler(req.Data[ipmi.OemIDLen:])
	if err != nil {
		return nil, err
	}

	rsp := append(ipmi.OemIntel.Bytes(), data...)
	tokens := make([]string, len(rsp))
	for i, b := range rsp {
		tokens[i] = fmt.Sprintf("%02x", b)
	}
	return tokens, nil
}

func (s *Simulator) version([]byte) ([]byte, error) {
	return simVersion, nil
}

func checkDomain(domain uint8) error {
	if _, err := domains.lookup(domain); err != nil {
		return ipmi.ErrNmDomainID
	}
	return nil
}

func (s *Simulator) policy(data []byte) (*simPolicy, error) {
	if len(data) < 2 {
		return nil, ipmi.ErrShortPacket
	}
	domain := data[0] & 0x0F
	if err := checkDomain(domain); err != nil {
		return nil, err
	}
	p, ok := s.policies[policyKey{domain, data[1]}]
	if !ok {
		return nil, ipmi.ErrNmPolicyID
	}
	return p, nil
}

func (s *Simulator) setPolicy(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, ipmi.ErrShortPacket
	}

	domain := data[0] & 0x0F
	if err := checkDomain(domain); err != nil {
		return nil, err
	}
	key := policyKey{domain, data[1]}

	if data[2]&policyAdd == 0 {
		if _, ok := s.policies[key]; !ok {
			return nil, ipmi.ErrNmPolicyID
		}
		delete(s.policies, key)
		return nil, nil
	}

	if len(data) < 4+policyValuesLen {
		return nil, ipmi.ErrShortPacket
	}
	if _, err := triggers.lookup(data[2] & 0x0F); err != nil {
		return nil, ipmi.ErrNmTriggerType
	}
	if data[2]&0x60 == 0x60 {
		return nil, ipmi.ErrNmAggressiveCPU
	}
	if len(s.policies) >= int(simMaxPolicies) {
		if _, ok := s.policies[key]; !ok {
			return nil, ipmi.ErrOutOfSpace
		}
	}

	p := &simPolicy{
		enabled: data[0]&policyEnabled != 0,
		flags:   data[2],
		action:  data[3],
	}
	if old, ok := s.policies[key]; ok {
		p.suspend = old.suspend
	}
	copy(p.values[:], data[4:])

	if data[2]&0x0F != triggers.code(TriggerBoot) {
		correction := binary.LittleEndian.Uint32(p.values[2:])
		if correction < simCorrection[0] || correction > simCorrection[1] {
			return nil, ipmi.ErrNmCorrectionTime
		}
	}

	s.policies[key] = p
	return nil, nil
}

func (s *Simulator) getPolicy(data []byte) ([]byte, error) {
	p, err := s.policy(data)
	if err != nil {
		return nil, err
	}

	status := data[0] & 0x0F
	if p.enabled {
		status |= 0x10
	}
	if !s.domainDisabled[data[0]&0x0F] {
		status |= 0x20
	}
	if s.globalEnabled {
		status |= 0x40
	}

	rsp := []byte{status, p.flags, p.action}
	return append(rsp, p.values[:]...), nil
}

func (s *Simulator) setSuspend(data []byte) ([]byte, error) {
	p, err := s.policy(data)
	if err != nil {
		return nil, err
	}
	if len(data) < 3 {
		return nil, ipmi.ErrShortPacket
	}

	n := int(data[2])
	if len(data) < 3+n*suspendPeriodLen {
		return nil, ipmi.ErrShortPacket
	}
	for i := 0; i < n; i++ {
		period := data[3+i*suspendPeriodLen:]
		if period[0] > maxSuspendTime || period[1] > maxSuspendTime {
			return nil, ipmi.ErrParamRange
		}
	}

	p.suspend = append([]byte(nil), data[2:3+n*suspendPeriodLen]...)
	return nil, nil
}

func (s *Simulator) getSuspend(data []byte) ([]byte, error) {
	p, err := s.policy(data)
	if err != nil {
		return nil, err
	}
	if len(p.suspend) == 0 {
		return []byte{0x00}, nil
	}
	return p.suspend, nil
}

func (s *Simulator) control(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, ipmi.ErrShortPacket
	}

	enable := data[0]&controlEnable != 0
	domain := data[1] & 0x0F

	switch data[0] &^ controlEnable {
	case controlFlags[ScopeGlobal]:
		s.globalEnabled = enable
	case controlFlags[ScopeDomain]:
		if err := checkDomain(domain); err != nil {
			return nil, err
		}
		s.domainDisabled[domain] = !enable
	case controlFlags[ScopePolicy]:
		p, err := s.policy(data[1:])
		if err != nil {
			return nil, err
		}
		p.enabled = enable
	default:
		return nil, ipmi.ErrInvalidPacket
	}

	return nil, nil
}

func (s *Simulator) capabilities(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, ipmi.ErrShortPacket
	}
	domain := data[0] & 0x0F
	if err := checkDomain(domain); err != nil {
		return nil, err
	}
	if _, err := triggers.lookup(data[1] & 0x0F); err != nil {
		return nil, ipmi.ErrNmTriggerType
	}

	rsp := make([]byte, capabilitiesLen-responseHeaderLen)
	rsp[0] = simMaxPolicies
	binary.LittleEndian.PutUint16(rsp[1:], simLimits[0])
	binary.LittleEndian.PutUint16(rsp[3:], simLimits[1])
	binary.LittleEndian.PutUint32(rsp[5:], simCorrection[0])
	binary.LittleEndian.PutUint32(rsp[9:], simCorrection[1])
	binary.LittleEndian.PutUint16(rsp[13:], simReporting[0])
	binary.LittleEndian.PutUint16(rsp[15:], simReporting[1])
	rsp[17] = domain | data[1]&0x80

	return rsp, nil
}

// statisticsMode checks domain and policy of a statistics request.
// Policy statistics and the policy reset address an existing policy.
func (s *Simulator) statisticsMode(data []byte, policyScoped func(uint8) bool) (uint8, error) {
	if len(data) < 3 {
		return 0, ipmi.ErrShortPacket
	}

	mode := data[0]
	if err := checkDomain(data[1] & 0x0F); err != nil {
		return 0, err
	}
	if policyScoped(mode) {
		if _, err := s.policy(data[1:]); err != nil {
			return 0, err
		}
	}

	return mode, nil
}

func (s *Simulator) resetStatistics(data []byte) ([]byte, error) {
	mode, err := s.statisticsMode(data, func(mode uint8) bool {
		return mode == resetPolicy
	})
	if err != nil {
		return nil, err
	}

	if mode != resetGlobal && mode != resetPolicy && !globalOnlyCode(mode) {
		return nil, ipmi.ErrNmMode
	}

	cur := s.readings[0]
	s.readings = [4]uint16{cur, cur, cur, cur}
	s.resetAt = s.Clock()

	return nil, nil
}

func (s *Simulator) getStatistics(data []byte) ([]byte, error) {
	mode, err := s.statisticsMode(data, func(mode uint8) bool {
		return statistics[ScopePolicy].names[mode] != ""
	})
	if err != nil {
		return nil, err
	}

	_, gerr := statistics[ScopeGlobal].lookup(mode)
	_, perr := statistics[ScopePolicy].lookup(mode)
	if gerr != nil && perr != nil {
		return nil, ipmi.ErrNmMode
	}

	now := s.Clock()
	rsp := make([]byte, statisticsLen-responseHeaderLen)
	for i, r := range s.readings {
		binary.LittleEndian.PutUint16(rsp[i*2:], r)
	}
	binary.LittleEndian.PutUint32(rsp[8:], uint32(now.Unix()))
	if now.After(s.resetAt) {
		binary.LittleEndian.PutUint32(rsp[12:], uint32(now.Sub(s.resetAt)/time.Second))
	}

	status := data[1]&0x0F | 0x40 // measurements are always in progress
	if s.globalEnabled {
		status |= 0x10 | 0x20
	}
	rsp[16] = status

	return rsp, nil
}
