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

package steamd_test

import (
	"testing"

	"go.steamd-lang.org/steamd"
	"go.steamd-lang.org/steamd/internal/testutil"
)

func TestMsgMask(t *testing.T) {
	t.Parallel()

	raw := steamd.MakeMsg(5452, true)
	testutil.ExpectEq(t, uint32(0x8000154C), raw)
	testutil.ExpectTrue(t, steamd.IsProtoBuf(raw))
	testutil.ExpectEq(t, uint32(5452), steamd.GetMsg(raw))

	raw = steamd.MakeMsg(5452, false)
	testutil.ExpectFalse(t, steamd.IsProtoBuf(raw))
	testutil.ExpectEq(t, uint32(5452), steamd.GetMsg(raw))

	raw = steamd.MakeGCMsg(4004, true)
	testutil.ExpectTrue(t, steamd.IsProtoBuf(raw))
	testutil.ExpectEq(t, uint32(4004), steamd.GetGCMsg(raw))
}

func TestCheckPayloadLen(t *testing.T) {
	t.Parallel()

	n, err := steamd.CheckPayloadLen(int32(12))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 12, n)

	_, err = steamd.CheckPayloadLen(int32(-1))
	testutil.ExpectEq(t, steamd.ErrPayloadTooLarge, err)

	_, err = steamd.CheckPayloadLen(uint32(0xFFFFFFFF))
	testutil.ExpectEq(t, steamd.ErrPayloadTooLarge, err)
}

func TestSteamID(t *testing.T) {
	t.Parallel()

	id := steamd.NewSteamID(22202, 1, steamd.AccountTypeIndividual, steamd.UniversePublic)
	testutil.ExpectEq(t, uint64(76561197960287930), id.ToUint64())
	testutil.ExpectEq(t, uint32(22202), id.AccountID())
	testutil.ExpectEq(t, uint32(1), id.Instance())
	testutil.ExpectEq(t, steamd.AccountTypeIndividual, id.AccountType())
	testutil.ExpectEq(t, steamd.UniversePublic, id.Universe())
	testutil.ExpectTrue(t, id.IsValid())
	testutil.ExpectEq(t, "[U:1:22202]", id.String())

	testutil.ExpectFalse(t, steamd.SteamID(0).IsValid())
}

func TestGameID(t *testing.T) {
	t.Parallel()

	id := steamd.NewGameID(440, steamd.GameTypeGameMod, 0x8000_0001)
	testutil.ExpectEq(t, uint32(440), id.AppID())
	testutil.ExpectEq(t, steamd.GameTypeGameMod, id.Type())
	testutil.ExpectEq(t, uint32(0x8000_0001), id.ModID())
	testutil.ExpectEq(t, steamd.GameID(440), steamd.NewGameID(440, steamd.GameTypeApp, 0))
}
