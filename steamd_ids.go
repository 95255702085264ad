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

package steamd

import (
	"fmt"
)

type Universe uint8

const (
	UniverseInvalid Universe = iota
	UniversePublic
	UniverseBeta
	UniverseInternal
	UniverseDev
)

type AccountType uint8

const (
	AccountTypeInvalid AccountType = iota
	AccountTypeIndividual
	AccountTypeMultiseat
	AccountTypeGameServer
	AccountTypeAnonGameServer
	AccountTypePending
	AccountTypeContentServer
	AccountTypeClan
	AccountTypeChat
	AccountTypeConsoleUser
	AccountTypeAnonUser
)

var accountTypeLetters = map[AccountType]byte{
	AccountTypeInvalid:        'I',
	AccountTypeIndividual:     'U',
	AccountTypeMultiseat:      'M',
	AccountTypeGameServer:     'G',
	AccountTypeAnonGameServer: 'A',
	AccountTypePending:        'P',
	AccountTypeContentServer:  'C',
	AccountTypeClan:           'g',
	AccountTypeChat:           'T',
	AccountTypeAnonUser:       'a',
}

// SteamID is the adapted form of a 64-bit account identifier field.
//
//	bits  0-31  account id
//	bits 32-51  instance
//	bits 52-55  account type
//	bits 56-63  universe
type SteamID uint64

func NewSteamID(accountID uint32, instance uint32, typ AccountType, universe Universe) SteamID {
	return SteamID(uint64(accountID) |
		uint64(instance&0xFFFFF)<<32 |
		uint64(typ&0xF)<<52 |
		uint64(universe)<<56)
}

func (id SteamID) AccountID() uint32 {
	return uint32(id)
}

func (id SteamID) Instance() uint32 {
	return uint32(id>>32) & 0xFFFFF
}

func (id SteamID) AccountType() AccountType {
	return AccountType(id>>52) & 0xF
}

func (id SteamID) Universe() Universe {
	return Universe(id >> 56)
}

func (id SteamID) IsValid() bool {
	if id.AccountType() == AccountTypeInvalid || id.AccountType() > AccountTypeAnonUser {
		return false
	}
	return id.Universe() != UniverseInvalid && id.Universe() <= UniverseDev
}

func (id SteamID) ToUint64() uint64 {
	return uint64(id)
}

// String renders the id in the bracketed "[T:U:A]" form.
func (id SteamID) String() string {
	letter, ok := accountTypeLetters[id.AccountType()]
	if !ok {
		letter = 'i'
	}
	return fmt.Sprintf("[%c:%d:%d]", letter, id.Universe(), id.AccountID())
}

type GameType uint8

const (
	GameTypeApp GameType = iota
	GameTypeGameMod
	GameTypeShortcut
	GameTypeP2P
)

// GameID is the adapted form of a 64-bit game identifier field.
//
//	bits  0-23  app id
//	bits 24-31  game type
//	bits 32-63  mod id
type GameID uint64

func NewGameID(appID uint32, typ GameType, modID uint32) GameID {
	return GameID(uint64(appID&0xFFFFFF) | uint64(typ)<<24 | uint64(modID)<<32)
}

func (id GameID) AppID() uint32 {
	return uint32(id) & 0xFFFFFF
}

func (id GameID) Type() GameType {
	return GameType(id >> 24)
}

func (id GameID) ModID() uint32 {
	return uint32(id >> 32)
}

func (id GameID) ToUint64() uint64 {
	return uint64(id)
}

func (id GameID) String() string {
	return fmt.Sprintf("%d", uint64(id))
}
