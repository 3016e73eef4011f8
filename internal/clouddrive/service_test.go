package clouddrive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/clouddrive/internal/audit"
	"github.com/dropDatabas3/clouddrive/internal/features"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

type fakeProvider struct{}

func (fakeProvider) ID() string      { return "fake" }
func (fakeProvider) Name() string    { return "Fake" }
func (fakeProvider) AuthURL() string { return "http://localhost/login" }

type fakeUser struct {
	name    string
	pending bool
}

func (u *fakeUser) ID() string         { return u.name }
func (u *fakeUser) Username() string   { return u.name }
func (u *fakeUser) Email() string      { return u.name + "@example.com" }
func (u *fakeUser) Provider() Provider { return fakeProvider{} }
func (u *fakeUser) Pending() bool      { return u.pending }

type fakeDrive struct {
	node *nodes.Node
	user User
}

func (d *fakeDrive) ID() string        { return d.node.String(nodetypes.PropID) }
func (d *fakeDrive) Title() string     { return d.node.String(nodetypes.PropTitle) }
func (d *fakeDrive) User() User        { return d.user }
func (d *fakeDrive) Node() *nodes.Node { return d.node }
func (d *fakeDrive) IsConnected() bool { return d.node.Bool(nodetypes.PropConnected) }

type fakeConnector struct{}

func (fakeConnector) Provider() Provider { return fakeProvider{} }

func (fakeConnector) Authenticate(_ context.Context, code string) (User, error) {
	switch code {
	case "":
		return nil, NewError("Access code should not be null or empty")
	case "pending":
		return &fakeUser{name: "john", pending: true}, nil
	}
	return &fakeUser{name: "john"}, nil
}

func (fakeConnector) CreateDrive(_ context.Context, user User, node *nodes.Node) (Drive, error) {
	node.Set(nodetypes.PropID, "remote-root")
	node.Set(nodetypes.PropURL, "http://remote/atom")
	return &fakeDrive{node: node, user: user}, nil
}

func (fakeConnector) LoadDrive(_ context.Context, node *nodes.Node) (Drive, error) {
	if err := CheckTrashed(node); err != nil {
		return nil, err
	}
	MigrateName(node)
	return &fakeDrive{node: node}, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, fc FeatureChecker) (*Service, nodes.Store) {
	t.Helper()
	reg := NewRegistry()
	reg.Register(fakeConnector{})
	store := nodes.NewMemory()
	return NewService(ServiceDeps{
		Registry: reg,
		Nodes:    store,
		Features: fc,
		Now:      func() time.Time { return fixedNow },
	}), store
}

func TestService_ConnectPending(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "pending", LocalUser: "root"})
	require.NoError(t, err)
	require.True(t, res.Pending)
	require.Nil(t, res.Drive)

	list, err := store.List(ctx, nodetypes.CloudDrive)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestService_ConnectCreatesDrive(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root"})
	require.NoError(t, err)
	require.False(t, res.Pending)
	require.True(t, res.Created)
	require.NotNil(t, res.Drive)

	n, err := store.Get(ctx, "/Users/root/Fake john")
	require.NoError(t, err)
	require.True(t, n.Bool(nodetypes.PropConnected))
	require.Equal(t, "john", n.String(nodetypes.PropCloudUserName))
	require.Equal(t, "john@example.com", n.String(nodetypes.PropUserEmail))
	require.Equal(t, "fake", n.String(nodetypes.PropProvider))
	require.Equal(t, fixedNow, n.Time(nodetypes.PropConnectDate))

	// reconexión sobre el mismo nodo
	res, err = svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root"})
	require.NoError(t, err)
	require.False(t, res.Created)
}

func TestService_ConnectErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "nope", Code: "abc", LocalUser: "root"})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "", LocalUser: "root"})
	require.True(t, IsError(err))

	_, err = svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc"})
	require.True(t, IsError(err))
}

func TestService_ConnectDeniedByFeatures(t *testing.T) {
	svc, _ := newTestService(t, features.New(features.Config{MaxDrivesPerUser: 1}))
	ctx := context.Background()

	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: "/Users/root/a"})
	require.NoError(t, err)

	_, err = svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: "/Users/root/b"})
	require.Error(t, err)
	require.True(t, IsError(err))
	require.ErrorIs(t, err, features.ErrDenied)
}

func TestService_ReviveRemovedDriveChecksLimit(t *testing.T) {
	svc, store := newTestService(t, features.New(features.Config{MaxDrivesPerUser: 1}))
	ctx := context.Background()
	connect := func(p string) error {
		_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: p})
		return err
	}

	require.NoError(t, connect("/Users/root/a"))
	require.NoError(t, svc.RemoveDrive(ctx, "root", "/Users/root/a"))
	require.NoError(t, connect("/Users/root/b"))

	// reconectar el drive eliminado lo revive: cuenta contra el límite
	err := connect("/Users/root/a")
	require.ErrorIs(t, err, features.ErrDenied)
	n, err := store.Get(ctx, "/Users/root/a")
	require.NoError(t, err)
	require.True(t, n.Trashed)

	drives, err := svc.Drives(ctx, "root")
	require.NoError(t, err)
	require.Len(t, drives, 1)

	// con lugar libre se revive
	require.NoError(t, svc.RemoveDrive(ctx, "root", "/Users/root/b"))
	require.NoError(t, connect("/Users/root/a"))
	n, err = store.Get(ctx, "/Users/root/a")
	require.NoError(t, err)
	require.False(t, n.Trashed)
	require.True(t, n.Bool(nodetypes.PropConnected))
}

func TestService_DriveOwnership(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	const drivePath = "/Users/alice/d"

	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "alice", Path: drivePath})
	require.NoError(t, err)
	before, err := store.Get(ctx, drivePath)
	require.NoError(t, err)

	_, err = svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "bob", Path: drivePath})
	require.ErrorIs(t, err, ErrNotOwner)
	require.True(t, IsError(err))

	_, err = svc.LoadDrive(ctx, "bob", drivePath)
	require.ErrorIs(t, err, ErrNotOwner)
	require.ErrorIs(t, svc.Disconnect(ctx, "bob", drivePath), ErrNotOwner)
	require.ErrorIs(t, svc.RemoveDrive(ctx, "bob", drivePath), ErrNotOwner)

	_, err = svc.LoadDrive(ctx, "", drivePath)
	require.True(t, IsError(err))
	require.NotErrorIs(t, err, ErrNotOwner)

	after, err := store.Get(ctx, drivePath)
	require.NoError(t, err)
	require.False(t, after.Trashed)
	require.True(t, after.Bool(nodetypes.PropConnected))
	require.Equal(t, "alice", after.String(nodetypes.PropLocalUserName))
	require.Equal(t, before.Time(nodetypes.PropConnectDate), after.Time(nodetypes.PropConnectDate))

	_, err = svc.LoadDrive(ctx, "alice", drivePath)
	require.NoError(t, err)
}

func TestService_LoadMigratesLegacyTitle(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: "/d"})
	require.NoError(t, err)

	n, err := store.Get(ctx, "/d")
	require.NoError(t, err)
	n.Set(nodetypes.PropTitle, "Fake - john")
	require.NoError(t, store.Save(ctx, n))

	d, err := svc.LoadDrive(ctx, "root", "/d")
	require.NoError(t, err)
	require.Equal(t, "Fake john", d.Title())

	n, err = store.Get(ctx, "/d")
	require.NoError(t, err)
	require.Equal(t, "Fake john", n.String(nodetypes.PropTitle))
}

func TestService_DisconnectAndRemove(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: "/d"})
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, "root", "/d"))
	n, err := store.Get(ctx, "/d")
	require.NoError(t, err)
	require.False(t, n.Bool(nodetypes.PropConnected))

	require.NoError(t, svc.RemoveDrive(ctx, "root", "/d"))
	_, err = svc.LoadDrive(ctx, "root", "/d")
	require.ErrorIs(t, err, ErrDriveRemoved)
	require.ErrorIs(t, svc.Disconnect(ctx, "root", "/d"), ErrDriveRemoved)

	drives, err := svc.Drives(ctx, "root")
	require.NoError(t, err)
	require.Empty(t, drives)

	_, err = svc.LoadDrive(ctx, "root", "/missing")
	require.ErrorIs(t, err, ErrUnknownDrive)
}

func TestService_AuditTrail(t *testing.T) {
	svc, _ := newTestService(t, nil)
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: "/d"})
	require.NoError(t, err)
	require.NoError(t, svc.Disconnect(ctx, "root", "/d"))
	require.NoError(t, svc.RemoveDrive(ctx, "root", "/d"))

	audited := logs.FilterLoggerName("audit").All()
	var events []string
	for _, e := range audited {
		events = append(events, e.Message)
	}
	require.Equal(t, []string{audit.EventDriveConnected, audit.EventDriveDisconnected, audit.EventDriveRemoved}, events)
	require.Equal(t, "j…@e….com", audited[0].ContextMap()["email"])
	require.Equal(t, "root", audited[2].ContextMap()["local_user"])
}

func TestMigrateName(t *testing.T) {
	n := &nodes.Node{}
	n.Set(nodetypes.PropTitle, "CMIS - mary")
	require.True(t, MigrateName(n))
	require.Equal(t, "CMIS mary", n.String(nodetypes.PropTitle))
	require.False(t, MigrateName(n))
}

func TestConnectorParams_Validate(t *testing.T) {
	_, err := NewBaseConnector(ConnectorParams{Schema: "http", Host: "h"})
	require.True(t, errors.Is(err, ErrConfiguration))

	b, err := NewBaseConnector(ConnectorParams{Schema: "https", Host: "portal:8443", ProviderID: "cmis", ProviderName: "CMIS"})
	require.NoError(t, err)
	require.Equal(t, "https://portal:8443", b.BaseURL())

	calls := 0
	create := func() Provider { calls++; return fakeProvider{} }
	b.ProviderOnce(create)
	b.ProviderOnce(create)
	require.Equal(t, 1, calls)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeConnector{})
	_, ok := r.Get("fake")
	require.True(t, ok)
	_, ok = r.Get("other")
	require.False(t, ok)
	require.Equal(t, []string{"fake"}, r.List())
}

func TestService_AutoSync(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, features.New(features.Config{AutoSync: true}))
	_, err := svc.Connect(ctx, ConnectRequest{ProviderID: "fake", Code: "abc", LocalUser: "root", Path: "/d"})
	require.NoError(t, err)
	n, err := store.Get(ctx, "/d")
	require.NoError(t, err)
	require.True(t, svc.AutoSync(n))

	excluded, _ := newTestService(t, features.New(features.Config{AutoSync: true, AutoSyncExcluded: []string{"fake"}}))
	require.False(t, excluded.AutoSync(n))

	none, _ := newTestService(t, nil)
	require.False(t, none.AutoSync(n))
}
