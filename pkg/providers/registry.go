package providers

import "fmt"

// ProviderType is the stable string recorded on a ReleaseConfig or CI
// integration record that selects a capability implementation. Kept as a
// distinct type rather than a bare string so a registry key typo is a
// compile error at every call site that declares a constant.
type ProviderType string

// Known provider types. Jenkins/Jira/Checkmate have no published Go SDK in
// the dependency set this module draws from, so their adapters speak
// net/http directly (see DESIGN.md).
const (
	ProviderGitHubActions ProviderType = "github_actions"
	ProviderJenkins       ProviderType = "jenkins"
	ProviderJira          ProviderType = "jira"
	ProviderCheckmate     ProviderType = "checkmate"
	ProviderSlack         ProviderType = "slack"
	ProviderAppStore      ProviderType = "app_store"
	ProviderPlayStore     ProviderType = "play_store"
)

// Registry is a static, explicit binding from ProviderType to capability
// implementation, built once at composition-root time. It replaces
// dynamic dispatch by provider-type string: a lookup miss is a rejected
// request, never a silent no-op.
type Registry struct {
	scm          map[ProviderType]SCM
	cicd         map[ProviderType]CICD
	projectMgmt  map[ProviderType]ProjectMgmt
	testMgmt     map[ProviderType]TestMgmt
	notification map[ProviderType]Notification
	store        map[ProviderType]Store
}

// NewRegistry returns an empty Registry; callers register adapters with
// the RegisterXxx methods during composition-root wiring.
func NewRegistry() *Registry {
	return &Registry{
		scm:          make(map[ProviderType]SCM),
		cicd:         make(map[ProviderType]CICD),
		projectMgmt:  make(map[ProviderType]ProjectMgmt),
		testMgmt:     make(map[ProviderType]TestMgmt),
		notification: make(map[ProviderType]Notification),
		store:        make(map[ProviderType]Store),
	}
}

// RegisterSCM binds an SCM implementation to a provider type.
func (r *Registry) RegisterSCM(t ProviderType, impl SCM) { r.scm[t] = impl }

// RegisterCICD binds a CICD implementation to a provider type.
func (r *Registry) RegisterCICD(t ProviderType, impl CICD) { r.cicd[t] = impl }

// RegisterProjectMgmt binds a ProjectMgmt implementation to a provider type.
func (r *Registry) RegisterProjectMgmt(t ProviderType, impl ProjectMgmt) { r.projectMgmt[t] = impl }

// RegisterTestMgmt binds a TestMgmt implementation to a provider type.
func (r *Registry) RegisterTestMgmt(t ProviderType, impl TestMgmt) { r.testMgmt[t] = impl }

// RegisterNotification binds a Notification implementation to a provider type.
func (r *Registry) RegisterNotification(t ProviderType, impl Notification) {
	r.notification[t] = impl
}

// RegisterStore binds a Store implementation to a provider type.
func (r *Registry) RegisterStore(t ProviderType, impl Store) { r.store[t] = impl }

// SCM resolves a provider type to its SCM implementation.
func (r *Registry) SCM(t ProviderType) (SCM, error) {
	impl, ok := r.scm[t]
	if !ok {
		return nil, fmt.Errorf("%w: scm/%s", ErrUnknownProviderType, t)
	}
	return impl, nil
}

// CICD resolves a provider type to its CICD implementation.
func (r *Registry) CICD(t ProviderType) (CICD, error) {
	impl, ok := r.cicd[t]
	if !ok {
		return nil, fmt.Errorf("%w: cicd/%s", ErrUnknownProviderType, t)
	}
	return impl, nil
}

// ProjectMgmt resolves a provider type to its ProjectMgmt implementation.
func (r *Registry) ProjectMgmt(t ProviderType) (ProjectMgmt, error) {
	impl, ok := r.projectMgmt[t]
	if !ok {
		return nil, fmt.Errorf("%w: projectmgmt/%s", ErrUnknownProviderType, t)
	}
	return impl, nil
}

// TestMgmt resolves a provider type to its TestMgmt implementation.
func (r *Registry) TestMgmt(t ProviderType) (TestMgmt, error) {
	impl, ok := r.testMgmt[t]
	if !ok {
		return nil, fmt.Errorf("%w: testmgmt/%s", ErrUnknownProviderType, t)
	}
	return impl, nil
}

// Notification resolves a provider type to its Notification implementation.
func (r *Registry) Notification(t ProviderType) (Notification, error) {
	impl, ok := r.notification[t]
	if !ok {
		return nil, fmt.Errorf("%w: notification/%s", ErrUnknownProviderType, t)
	}
	return impl, nil
}

// Store resolves a provider type to its Store implementation.
func (r *Registry) Store(t ProviderType) (Store, error) {
	impl, ok := r.store[t]
	if !ok {
		return nil, fmt.Errorf("%w: store/%s", ErrUnknownProviderType, t)
	}
	return impl, nil
}
