// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package testutil

// SampleSource is a trimmed-down protocol definition in the shape of the
// Steam client message headers.
const SampleSource = `// Steam client messages
#import "steammsg_base.steamd"

enum EMsg
{
	Invalid = 0;
	Multi = 1;
	ChannelEncryptRequest = 1303;
	ChannelEncryptResponse;
	ChannelEncryptResult;
	ClientHeartBeat = 703;
	ClientLogOnResponse = 751;
	ClientFriendMsg = 5423; obsolete "superseded by ClientFriendMsg2"
	ClientLogon = 5514;
	ClientHello = 9805;
	ClientOldCommand = 9900; removed
};

enum EUniverse
{
	Invalid = 0;
	Public = 1;
	Beta = 2;
	Internal = 3;
	Dev = 4;
	Max = 5;
};

enum EUdpPacketType<byte>
{
	Invalid = 0;
	ChallengeReq = 1;
	Challenge = 2;
	Connect = 3;
	Accept = 4;
	Disconnect = 5;
	Data = 6;
	Datagram = 7;
	Max = 8;
};

enum EClientPersonaStateFlag<uint> flags
{
	Status = 1;
	PlayerName = 2;
	QueryPort = 4;
	SourceID = 8;
	Presence = 16;
	Default = Status | PlayerName;
};

class UdpHeader
{
	const uint MAGIC = 0x31305356;

	uint magic = UdpHeader::MAGIC;

	ushort payloadSize;
	EUdpPacketType packetType = EUdpPacketType::Invalid;
	byte flags;

	uint sourceConnID = 512;
	uint destConnID;

	uint seqThis;
	uint seqAck;

	uint packetsInMsg;
	uint msgStartSeq;

	uint msgSize;
};

class MsgHdr
{
	EMsg msg = EMsg::Invalid;

	ulong targetJobID = ulong.MaxValue;
	ulong sourceJobID = ulong.MaxValue;
};

class ExtendedClientMsgHdr
{
	EMsg msg = EMsg::Invalid;

	byte headerSize = 36;
	ushort headerVersion = 2;

	ulong targetJobID = ulong.MaxValue;
	ulong sourceJobID = ulong.MaxValue;

	byte headerCanary = 239;

	steamidmarshal ulong steamID;
	int sessionID;
};

class MsgHdrProtoBuf
{
	protomask EMsg msg = EMsg::Invalid;
	int headerLength;

	proto<headerLength> SteamKit2.Internal.CMsgProtoBufHeader proto;
};

class MsgGCHdrProtoBuf
{
	protomaskgc uint msg = 0;
	int headerLength;

	proto<headerLength> SteamKit2.GC.Internal.CMsgProtoBufHeader proto;
};

class MsgGCHdr
{
	ushort headerVersion = 1;

	ulong targetJobID = ulong.MaxValue;
	ulong sourceJobID = ulong.MaxValue;
};

class MsgChannelEncryptRequest<EMsg::ChannelEncryptRequest> expects MsgHdr
{
	const uint PROTOCOL_VERSION = 1;

	uint protocolVersion = MsgChannelEncryptRequest::PROTOCOL_VERSION;
	EUniverse universe = EUniverse::Invalid;
};

class MsgChannelEncryptResult<EMsg::ChannelEncryptResult> expects MsgHdr
{
	int result;
};

class MsgClientNewLoginKey<EMsg::ClientLogOnResponse> expects ExtendedClientMsgHdr
{
	uint uniqueID;
	byte<20> loginKey;
};

class MsgClientFriendMsg<EMsg::ClientFriendMsg> expects ExtendedClientMsgHdr
{
	steamidmarshal ulong steamID;
	boolmarshal byte isTyping;
	gameidmarshal ulong gameID;
	EClientPersonaStateFlag persona = EClientPersonaStateFlag::Status | EClientPersonaStateFlag::Presence;
};

class MsgClientHello<EMsg::ClientHello> expects MsgHdr
{
	const uint ProtocolVersion = 65580;

	uint protocolVersion = MsgClientHello::ProtocolVersion;
	int bodyLength;
	proto<bodyLength> SteamKit2.Internal.CMsgClientHello body;
};

class MsgGCSetItemPosition<2001> expects MsgGCHdr
{
	ulong itemID;
	uint position;
};
`
