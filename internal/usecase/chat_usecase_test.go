package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/domain/entity"
	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/pkg/errors"
)

// ---- in-memory fakes ----

type fakeConvRepo struct {
	mu      sync.Mutex
	convs   map[string]entity.Conversation
	creates int
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[string]entity.Conversation)}
}

func (r *fakeConvRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	r.convs[conv.ID] = *conv
	r.creates++
	return nil
}

func (r *fakeConvRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := conv
	copied.Messages = append([]entity.Message(nil), conv.Messages...)
	return &copied, nil
}

func (r *fakeConvRepo) FindByTriple(ctx context.Context, itemID, buyerID, sellerID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conv := range r.convs {
		if conv.ItemID == itemID && conv.BuyerID == buyerID && conv.SellerID == sellerID {
			copied := conv
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConvRepo) AppendMessage(ctx context.Context, conversationID string, msg entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UnreadCount++
	conv.HiddenByBuyer = false
	conv.HiddenBySeller = false
	conv.UpdatedAt = msg.CreatedAt
	r.convs[conversationID] = conv
	return nil
}

func (r *fakeConvRepo) ResetUnread(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.UnreadCount = 0
	r.convs[conversationID] = conv
	return nil
}

func (r *fakeConvRepo) Hide(ctx context.Context, conversationID string, asBuyer bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if asBuyer {
		conv.HiddenByBuyer = true
	} else {
		conv.HiddenBySeller = true
	}
	r.convs[conversationID] = conv
	return nil
}

func (r *fakeConvRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Conversation
	for _, conv := range r.convs {
		if conv.BuyerID == userID || conv.SellerID == userID {
			copied := conv
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newFakeUserRepo(users ...entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) SetPushSubscription(ctx context.Context, userID string, sub *entity.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	user.PushSubscription = sub
	r.users[userID] = user
	return nil
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]entity.Item
}

func newFakeItemRepo(items ...entity.Item) *fakeItemRepo {
	r := &fakeItemRepo{items: make(map[string]entity.Item)}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *fakeItemRepo) Create(ctx context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound("Item", nil)
	}
	copied := item
	return &copied, nil
}

func (r *fakeItemRepo) ListUnsold(ctx context.Context) ([]*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Item
	for _, item := range r.items {
		if !item.Sold {
			copied := item
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Item
	for _, item := range r.items {
		if item.SellerID == sellerID {
			copied := item
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) MarkSold(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return errors.NotFound("Item", nil)
	}
	item.Sold = true
	r.items[id] = item
	return nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type notifiedEvent struct {
	Target string // "user" or "conversation"
	ID     string
	Event  string
	Data   interface{}
}

type stubNotifier struct {
	mu     sync.Mutex
	events []notifiedEvent
	online map[string]bool
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{online: make(map[string]bool)}
}

func (n *stubNotifier) NotifyUser(userID string, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifiedEvent{Target: "user", ID: userID, Event: event, Data: payload})
}

func (n *stubNotifier) NotifyConversation(conversationID string, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifiedEvent{Target: "conversation", ID: conversationID, Event: event, Data: payload})
}

func (n *stubNotifier) IsOnline(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online[userID]
}

func (n *stubNotifier) setOnline(userID string, online bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.online[userID] = online
}

func (n *stubNotifier) eventsFor(target, id string) []notifiedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifiedEvent
	for _, e := range n.events {
		if e.Target == target && e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

type stubPushSender struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubPushSender) SendToUser(ctx context.Context, userID string, payload interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, userID)
	return true
}

func (s *stubPushSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// ---- fixtures ----

type chatFixture struct {
	uc       *ChatUseCase
	convRepo *fakeConvRepo
	notifier *stubNotifier
	push     *stubPushSender

	buyerID  string
	sellerID string
	itemID   string
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	buyer := entity.User{ID: "buyer-1", Name: "Asha", Username: "asha"}
	seller := entity.User{ID: "seller-1", Name: "Ravi", Username: "ravi"}
	item := entity.Item{ID: "item-1", SellerID: seller.ID, Title: "Thermodynamics textbook", Price: 250}

	convRepo := newFakeConvRepo()
	notifier := newStubNotifier()
	push := &stubPushSender{}

	uc := NewChatUseCase(convRepo, newFakeUserRepo(buyer, seller), newFakeItemRepo(item), notifier, push)

	return &chatFixture{
		uc:       uc,
		convRepo: convRepo,
		notifier: notifier,
		push:     push,
		buyerID:  buyer.ID,
		sellerID: seller.ID,
		itemID:   item.ID,
	}
}

func (f *chatFixture) startConversation(t *testing.T) string {
	t.Helper()

	conv, err := f.uc.GetOrCreateConversation(context.Background(), f.buyerID, InitConversationInput{
		ItemID:   f.itemID,
		SellerID: f.sellerID,
	})
	require.NoError(t, err)
	return conv.ID
}

// ---- tests ----

func TestGetOrCreateConversationIsIdempotent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.uc.GetOrCreateConversation(ctx, f.buyerID, InitConversationInput{ItemID: f.itemID, SellerID: f.sellerID})
	require.NoError(t, err)

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: first.ID, Text: "Is this available?"}))

	second, err := f.uc.GetOrCreateConversation(ctx, f.buyerID, InitConversationInput{ItemID: f.itemID, SellerID: f.sellerID})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.UnreadCount, "re-initiating must not reset the counter")
	assert.Equal(t, 1, f.convRepo.creates)
}

func TestGetOrCreateConversationRejectsSelfChat(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.uc.GetOrCreateConversation(context.Background(), f.sellerID, InitConversationInput{
		ItemID:   f.itemID,
		SellerID: f.sellerID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestGetOrCreateConversationUnknownItem(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.uc.GetOrCreateConversation(context.Background(), f.buyerID, InitConversationInput{
		ItemID:   "missing-item",
		SellerID: f.sellerID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestGetOrCreateConversationConcurrentFirstContact(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	const attempts = 20
	ids := make([]string, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := f.uc.GetOrCreateConversation(ctx, f.buyerID, InitConversationInput{ItemID: f.itemID, SellerID: f.sellerID})
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.convRepo.creates, "concurrent first contacts must collapse into one thread")
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestSendMessageAppendsIncrementsAndResurfaces(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	require.NoError(t, f.uc.HideConversation(ctx, f.buyerID, convID))
	require.NoError(t, f.uc.HideConversation(ctx, f.sellerID, convID))

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "Still selling?"}))

	conv, err := f.convRepo.GetByID(ctx, convID)
	require.NoError(t, err)

	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "Still selling?", conv.Messages[0].Text)
	assert.Equal(t, f.buyerID, conv.Messages[0].SenderID)
	assert.Equal(t, 1, conv.UnreadCount)
	assert.False(t, conv.HiddenByBuyer, "a new message must resurface the thread for both sides")
	assert.False(t, conv.HiddenBySeller)
}

func TestSendMessageNotifiesRoomAndRecipientOnly(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "hello"}))

	roomEvents := f.notifier.eventsFor("conversation", convID)
	require.Len(t, roomEvents, 1)
	assert.Equal(t, ws.EventReceiveMessage, roomEvents[0].Event)

	sellerEvents := f.notifier.eventsFor("user", f.sellerID)
	require.Len(t, sellerEvents, 1)
	assert.Equal(t, ws.EventUnreadUpdate, sellerEvents[0].Event)
	assert.Equal(t, ws.UnreadUpdateData{ConversationID: convID, Action: "increment"}, sellerEvents[0].Data)

	assert.Empty(t, f.notifier.eventsFor("user", f.buyerID), "the sender gets no unread increment")
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	f := newChatFixture(t)
	convID := f.startConversation(t)

	err := f.uc.SendMessage(context.Background(), f.buyerID, SendMessageInput{ConversationID: convID, Text: "   \n\t"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	conv, err := f.convRepo.GetByID(context.Background(), convID)
	require.NoError(t, err)
	assert.Empty(t, conv.Messages)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	f := newChatFixture(t)
	convID := f.startConversation(t)

	err := f.uc.SendMessage(context.Background(), "stranger-9", SendMessageInput{ConversationID: convID, Text: "let me in"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestConcurrentSendersLoseNoMessages(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	const perSender = 25
	var wg sync.WaitGroup
	for _, sender := range []string{f.buyerID, f.sellerID} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				assert.NoError(t, f.uc.SendMessage(ctx, sender, SendMessageInput{ConversationID: convID, Text: "msg"}))
			}
		}(sender)
	}
	wg.Wait()

	conv, err := f.convRepo.GetByID(ctx, convID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2*perSender)
	assert.Equal(t, 2*perSender, conv.UnreadCount)
}

func TestOpenConversationResetsSharedCounter(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "one"}))
	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "two"}))

	// The counter is shared: the sender opening their own thread clears it
	// for everyone.
	opened, err := f.uc.OpenConversation(ctx, f.buyerID, convID)
	require.NoError(t, err)
	assert.Equal(t, 0, opened.UnreadCount)

	total, err := f.uc.GetUnreadTotal(ctx, f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	buyerEvents := f.notifier.eventsFor("user", f.buyerID)
	require.NotEmpty(t, buyerEvents)
	last := buyerEvents[len(buyerEvents)-1]
	assert.Equal(t, ws.EventUnreadUpdate, last.Event)
	assert.Equal(t, ws.UnreadUpdateData{ConversationID: convID, Action: "reset"}, last.Data)
}

func TestOpenConversationForbiddenForOutsiders(t *testing.T) {
	f := newChatFixture(t)
	convID := f.startConversation(t)

	_, err := f.uc.OpenConversation(context.Background(), "stranger-9", convID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestHideConversationIsPerSide(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "hello"}))
	require.NoError(t, f.uc.HideConversation(ctx, f.buyerID, convID))

	buyerInbox, err := f.uc.ListMyConversations(ctx, f.buyerID)
	require.NoError(t, err)
	assert.Empty(t, buyerInbox)

	sellerInbox, err := f.uc.ListMyConversations(ctx, f.sellerID)
	require.NoError(t, err)
	require.Len(t, sellerInbox, 1)
	assert.Equal(t, convID, sellerInbox[0].ID)

	// Hiding never deletes history.
	conv, err := f.convRepo.GetByID(ctx, convID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)

	// A reply from the other side brings the thread back.
	require.NoError(t, f.uc.SendMessage(ctx, f.sellerID, SendMessageInput{ConversationID: convID, Text: "yes, still here"}))

	buyerInbox, err = f.uc.ListMyConversations(ctx, f.buyerID)
	require.NoError(t, err)
	require.Len(t, buyerInbox, 1)
	assert.Len(t, buyerInbox[0].Messages, 2)
}

func TestUnreadTotalCountsHiddenConversations(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "ping"}))
	require.NoError(t, f.uc.HideConversation(ctx, f.sellerID, convID))

	// Hiding removes the row from the inbox but not its unread weight.
	// Resurfacing via a hidden thread's badge is accepted behavior.
	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "ping again"}))

	total, err := f.uc.GetUnreadTotal(ctx, f.sellerID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestListMyConversationsNewestFirst(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	itemRepo := newFakeItemRepo(
		entity.Item{ID: "item-1", SellerID: f.sellerID, Title: "Textbook"},
		entity.Item{ID: "item-2", SellerID: f.sellerID, Title: "Calculator"},
	)
	f.uc.itemRepo = itemRepo

	first, err := f.uc.GetOrCreateConversation(ctx, f.buyerID, InitConversationInput{ItemID: "item-1", SellerID: f.sellerID})
	require.NoError(t, err)
	second, err := f.uc.GetOrCreateConversation(ctx, f.buyerID, InitConversationInput{ItemID: "item-2", SellerID: f.sellerID})
	require.NoError(t, err)

	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: second.ID, Text: "a"}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: first.ID, Text: "b"}))

	inbox, err := f.uc.ListMyConversations(ctx, f.buyerID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, first.ID, inbox[0].ID, "latest activity sorts first")
	assert.Equal(t, "Textbook", inbox[0].ItemTitle)
	assert.Equal(t, f.sellerID, inbox[0].OtherUserID)
}

func TestSendMessagePushesOnlyWhenRecipientOffline(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	f.notifier.setOnline(f.sellerID, true)
	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "you there?"}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, f.push.callCount(), "no push while the recipient is connected")

	f.notifier.setOnline(f.sellerID, false)
	require.NoError(t, f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "hello?"}))

	assert.Eventually(t, func() bool {
		return f.push.callCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSendMessageRateLimited(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	convID := f.startConversation(t)

	var limited bool
	for i := 0; i < 40; i++ {
		err := f.uc.SendMessage(ctx, f.buyerID, SendMessageInput{ConversationID: convID, Text: "spam"})
		if err != nil {
			require.True(t, errors.Is(err, "TOO_MANY_REQUESTS"))
			limited = true
			break
		}
	}
	assert.True(t, limited, "a burst beyond the per-minute budget must be rejected")
}
