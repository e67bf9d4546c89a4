package dialog

import (
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

func TestTableOpenCloseGet(t *testing.T) {
	tbl := NewTable()
	client := worldstore.ClientID(1)

	_, ok := tbl.Get(client)
	require.False(t, ok)

	tbl.Open(client, State{Kind: KindCrafting, Station: worldstore.EntityID(5)})
	s, ok := tbl.Get(client)
	require.True(t, ok)
	require.Equal(t, KindCrafting, s.Kind)
	require.Equal(t, worldstore.EntityID(5), s.Station)

	tbl.Close(client)
	_, ok = tbl.Get(client)
	require.False(t, ok)
}

func TestTableOpenReplacesPreviousDialog(t *testing.T) {
	tbl := NewTable()
	client := worldstore.ClientID(1)
	tbl.Open(client, State{Kind: KindGeneric})
	tbl.Open(client, State{Kind: KindCrafting})

	s, _ := tbl.Get(client)
	require.Equal(t, KindCrafting, s.Kind)
}

func TestParseChatPrefixes(t *testing.T) {
	scope, body := ParseChat("/l hi")
	require.Equal(t, ScopeLocal, scope)
	require.Equal(t, "hi", body)

	scope, body = ParseChat("/g hello everyone")
	require.Equal(t, ScopeGlobal, scope)
	require.Equal(t, "hello everyone", body)

	scope, body = ParseChat("no prefix here")
	require.Equal(t, ScopeLocal, scope)
	require.Equal(t, "no prefix here", body)
}

func TestFormatChatUpdateMatchesWireShape(t *testing.T) {
	require.Equal(t, "&l\tA\thi", FormatChatUpdate(ScopeLocal, "A", "hi"))
	require.Equal(t, "&g\tA\thi", FormatChatUpdate(ScopeGlobal, "A", "hi"))
}

func TestRouteLocalOnlyReachesCollectedRecipients(t *testing.T) {
	queue := messages.NewQueue(time.Unix(0, 0))
	router := NewRouter(queue)

	a := worldstore.ClientID(1)
	b := worldstore.ClientID(2)

	router.RouteLocal("A", "hi", func(notify func(worldstore.ClientID)) {
		notify(a)
		notify(b)
	})

	enc := &recordingEncoder{}
	require.NoError(t, queue.Drain(enc))
	require.Len(t, enc.sent, 2)
	require.Equal(t, "&l\tA\thi", enc.sent[0].msg.Args)
}

func TestRouteGlobalBroadcastsToAllRecipients(t *testing.T) {
	queue := messages.NewQueue(time.Unix(0, 0))
	router := NewRouter(queue)

	router.RouteGlobal("A", "hello", []worldstore.ClientID{1, 2, 3})

	enc := &recordingEncoder{}
	require.NoError(t, queue.Drain(enc))
	require.Len(t, enc.sent, 3)
	require.Equal(t, "&g\tA\thello", enc.sent[0].msg.Args)
}

type recordingEncoder struct {
	sent []struct {
		client worldstore.ClientID
		msg    messages.Message
	}
}

func (e *recordingEncoder) EncodeMessage(client worldstore.ClientID, msg messages.Message) ([]byte, error) {
	e.sent = append(e.sent, struct {
		client worldstore.ClientID
		msg    messages.Message
	}{client, msg})
	return []byte("frame"), nil
}

func (e *recordingEncoder) Send(client worldstore.ClientID, frame []byte) error { return nil }
