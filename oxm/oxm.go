// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

// Package oxm defines the OpenFlow Extensible Match field identifiers
// understood by the classifier and the table mapping each field onto a
// packet header location.
//
// A packet is handed to the classifier as a set of header base slices
// (see Base). The out-of-band bases carry pipeline metadata in a fixed
// layout:
//
//	OOB:   in_port u32 | in_phy_port u32 | metadata u64 | eth_type u16 | vlan_tci u16
//	OOB2:  tunnel_id u64 | ipv6_exthdr u16
//
// All multi-byte quantities are big-endian, as on the wire.
package oxm

import "math/bits"

// FieldType identifies one OXM basic match field (OFPXMT_OFB_*).
type FieldType uint8

const (
	InPort FieldType = iota
	InPhyPort
	Metadata
	EthDst
	EthSrc
	EthType
	VlanVID
	VlanPCP
	IPDSCP
	IPECN
	IPProto
	IPv4Src
	IPv4Dst
	TCPSrc
	TCPDst
	UDPSrc
	UDPDst
	SCTPSrc
	SCTPDst
	ICMPv4Type
	ICMPv4Code
	ARPOp
	ARPSPA
	ARPTPA
	ARPSHA
	ARPTHA
	IPv6Src
	IPv6Dst
	IPv6FLabel
	ICMPv6Type
	ICMPv6Code
	IPv6NDTarget
	IPv6NDSLL
	IPv6NDTLL
	MPLSLabel
	MPLSTC
	MPLSBoS
	PBBISID
	TunnelID
	IPv6ExtHdr

	NumFieldTypes = int(IPv6ExtHdr) + 1
)

var fieldNames = [NumFieldTypes]string{
	"in_port", "in_phy_port", "metadata", "eth_dst", "eth_src",
	"eth_type", "vlan_vid", "vlan_pcp", "ip_dscp", "ip_ecn",
	"ip_proto", "ipv4_src", "ipv4_dst", "tcp_src", "tcp_dst",
	"udp_src", "udp_dst", "sctp_src", "sctp_dst", "icmpv4_type",
	"icmpv4_code", "arp_op", "arp_spa", "arp_tpa", "arp_sha",
	"arp_tha", "ipv6_src", "ipv6_dst", "ipv6_flabel", "icmpv6_type",
	"icmpv6_code", "ipv6_nd_target", "ipv6_nd_sll", "ipv6_nd_tll",
	"mpls_label", "mpls_tc", "mpls_bos", "pbb_isid", "tunnel_id",
	"ipv6_exthdr",
}

func (f FieldType) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "unknown"
}

// Valid reports whether f is one of the known basic match fields.
func (f FieldType) Valid() bool { return int(f) < NumFieldTypes }

// Base identifies one packet header base slice.
type Base uint8

const (
	BaseOOB     Base = iota // out-of-band pipeline data
	BaseEth                 // ethernet header
	BaseL3                  // IPv4/IPv6/ARP header
	BaseL4                  // TCP/UDP/ICMP header
	BaseIPProto             // one byte, the resolved IP protocol
	BaseMPLS                // first MPLS shim
	BasePBB                 // PBB I-TAG
	BaseOOB2                // second out-of-band block
	BaseNDSLL               // IPv6 ND source link-layer option
	BaseNDTLL               // IPv6 ND target link-layer option

	NumBases = int(BaseNDTLL) + 1
)

// Extract describes where one match field lives inside a packet:
// load Size bytes big-endian at Off from Base (at most the first four
// bytes contribute), mask with Mask and shift right by Shift.
type Extract struct {
	Base  Base
	Off   uint8
	Size  uint8
	Mask  uint32
	Shift uint8
}

// Layout maps every field type onto its header location. The table is
// part of the public contract: rule projection and packet projection
// both go through it, so the two sides always agree on alignment.
var Layout = [NumFieldTypes]Extract{
	InPort:       {BaseOOB, 0, 4, 0xffffffff, 0},
	InPhyPort:    {BaseOOB, 4, 4, 0xffffffff, 0},
	Metadata:     {BaseOOB, 8, 8, 0xffffffff, 0},
	EthDst:       {BaseEth, 0, 6, 0xffffffff, 0},
	EthSrc:       {BaseEth, 6, 6, 0xffffffff, 0},
	EthType:      {BaseOOB, 16, 2, 0xffff, 0},
	VlanVID:      {BaseOOB, 18, 2, 0x1fff, 0},
	VlanPCP:      {BaseOOB, 18, 2, 0xe000, 13},
	IPDSCP:       {BaseL3, 1, 1, 0xfc, 2},
	IPECN:        {BaseL3, 1, 1, 0x03, 0},
	IPProto:      {BaseIPProto, 0, 1, 0xff, 0},
	IPv4Src:      {BaseL3, 12, 4, 0xffffffff, 0},
	IPv4Dst:      {BaseL3, 16, 4, 0xffffffff, 0},
	TCPSrc:       {BaseL4, 0, 2, 0xffff, 0},
	TCPDst:       {BaseL4, 2, 2, 0xffff, 0},
	UDPSrc:       {BaseL4, 0, 2, 0xffff, 0},
	UDPDst:       {BaseL4, 2, 2, 0xffff, 0},
	SCTPSrc:      {BaseL4, 0, 2, 0xffff, 0},
	SCTPDst:      {BaseL4, 2, 2, 0xffff, 0},
	ICMPv4Type:   {BaseL4, 0, 1, 0xff, 0},
	ICMPv4Code:   {BaseL4, 1, 1, 0xff, 0},
	ARPOp:        {BaseL3, 6, 2, 0xffff, 0},
	ARPSPA:       {BaseL3, 14, 4, 0xffffffff, 0},
	ARPTPA:       {BaseL3, 24, 4, 0xffffffff, 0},
	ARPSHA:       {BaseL3, 8, 6, 0xffffffff, 0},
	ARPTHA:       {BaseL3, 18, 6, 0xffffffff, 0},
	IPv6Src:      {BaseL3, 8, 16, 0xffffffff, 0},
	IPv6Dst:      {BaseL3, 24, 16, 0xffffffff, 0},
	IPv6FLabel:   {BaseL3, 0, 4, 0x000fffff, 0},
	ICMPv6Type:   {BaseL4, 0, 1, 0xff, 0},
	ICMPv6Code:   {BaseL4, 1, 1, 0xff, 0},
	IPv6NDTarget: {BaseL4, 8, 16, 0xffffffff, 0},
	IPv6NDSLL:    {BaseNDSLL, 0, 6, 0xffffffff, 0},
	IPv6NDTLL:    {BaseNDTLL, 0, 6, 0xffffffff, 0},
	MPLSLabel:    {BaseMPLS, 0, 4, 0xfffff000, 12},
	MPLSTC:       {BaseMPLS, 0, 4, 0x00000e00, 9},
	MPLSBoS:      {BaseMPLS, 0, 4, 0x00000100, 8},
	PBBISID:      {BasePBB, 0, 4, 0x00ffffff, 0},
	TunnelID:     {BaseOOB2, 0, 8, 0xffffffff, 0},
	IPv6ExtHdr:   {BaseOOB2, 8, 2, 0xffff, 0},
}

// Load reads the field's raw 32-bit projection from the header bytes:
// the first min(Size,4) bytes big-endian, masked and shifted. Fields
// wider than 32 bits project their leading four bytes; that is the
// price of 32-bit points and it is applied identically to rules.
func (e Extract) Load(hdr []byte) (v uint32, ok bool) {
	n := int(e.Size)
	if n > 4 {
		n = 4
	}
	if len(hdr) < int(e.Off)+n {
		return 0, false
	}
	for _, b := range hdr[e.Off : int(e.Off)+n] {
		v = v<<8 | uint32(b)
	}
	return (v & e.Mask) >> e.Shift, true
}

// Project32 folds a match value of arbitrary byte length into the same
// 32-bit alignment Load produces: leading four bytes, big-endian.
func Project32(b []byte) uint32 {
	var v uint32
	n := min(len(b), 4)
	for _, x := range b[:n] {
		v = v<<8 | uint32(x)
	}
	return v
}

// PrefixMask reports whether mask is a single run of 1-bits from the
// MSB (including the empty and the full mask). Only prefix-masked
// fields can be expressed as one contiguous range.
func PrefixMask(mask uint32) bool {
	return bits.OnesCount32(^mask+1) <= 1
}
