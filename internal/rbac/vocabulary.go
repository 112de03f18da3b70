package rbac

import (
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/karimoff96/Multilang/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CapabilityDomain groups member capabilities under one master flag.
type CapabilityDomain struct {
	Name    string   `mapstructure:"name"`
	Master  string   `mapstructure:"master"`
	Members []string `mapstructure:"members"`
}

// ScopeRule names the view-breadth capabilities consulted for one resource
// kind. Empty entries disable that breadth for the kind.
type ScopeRule struct {
	All    string `mapstructure:"all"`
	Own    string `mapstructure:"own"`
	Branch string `mapstructure:"branch"`
}

// Vocabulary is the platform-owned capability registry: domains with master
// flags, the legacy-name alias table, and the per-kind scope rules. It is
// configuration data, not code, so capabilities can be added without
// touching the resolver.
type Vocabulary struct {
	Version int                  `mapstructure:"version"`
	Domains []CapabilityDomain   `mapstructure:"domains"`
	Aliases map[string]string    `mapstructure:"aliases"`
	Scopes  map[string]ScopeRule `mapstructure:"scopes"`

	memberToMaster map[string]string
	masters        map[string]struct{}
}

// index builds the member->master lookup used during resolution.
func (v *Vocabulary) index() {
	v.memberToMaster = make(map[string]string)
	v.masters = make(map[string]struct{}, len(v.Domains))
	for _, d := range v.Domains {
		v.masters[d.Master] = struct{}{}
		for _, member := range d.Members {
			v.memberToMaster[member] = d.Master
		}
	}
}

// MasterOf returns the master flag of the domain a member capability
// belongs to.
func (v *Vocabulary) MasterOf(capability string) (string, bool) {
	master, ok := v.memberToMaster[capability]
	return master, ok
}

// IsMaster reports whether the capability is itself a domain master flag.
func (v *Vocabulary) IsMaster(capability string) bool {
	_, ok := v.masters[capability]
	return ok
}

// CanonicalAlias returns the current name for a deprecated capability.
func (v *Vocabulary) CanonicalAlias(capability string) (string, bool) {
	canonical, ok := v.Aliases[capability]
	return canonical, ok
}

// Capabilities returns every known capability name, masters included.
func (v *Vocabulary) Capabilities() []string {
	out := make([]string, 0, len(v.memberToMaster)+len(v.masters))
	for _, d := range v.Domains {
		out = append(out, d.Master)
		out = append(out, d.Members...)
	}
	return out
}

// DefaultVocabulary returns the compiled-in capability registry.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{
		Version: 1,
		Domains: []CapabilityDomain{
			{
				Name:   "orders",
				Master: CapManageOrders,
				Members: []string{
					CapViewAllOrders, CapViewOwnOrders, CapViewBranchOrders,
					CapCreateOrders, CapEditOrders, CapDeleteOrders,
					CapAssignOrders, CapUpdateOrderStatus,
					CapCompleteOrders, CapCancelOrders,
				},
			},
			{
				Name:   "staff",
				Master: CapManageStaff,
				Members: []string{
					CapViewStaff, CapViewBranchStaff, CapEditStaff, CapDeleteStaff,
				},
			},
			{
				Name:   "branches",
				Master: CapManageBranches,
				Members: []string{
					CapViewBranches, CapViewOwnBranch,
					CapCreateBranches, CapEditBranches, CapDeleteBranches,
				},
			},
			{
				Name:   "financial",
				Master: CapManageFinances,
				Members: []string{
					CapReceivePayments, CapApplyDiscounts,
					CapRefundOrders, CapViewFinancialReports,
				},
			},
			{
				Name:   "reports",
				Master: CapManageReports,
				Members: []string{
					CapViewAnalytics, CapExportData, CapViewStaffPerformance,
				},
			},
			{
				Name:   "products",
				Master: CapManageProducts,
				Members: []string{
					CapViewProducts, CapCreateProducts,
					CapEditProducts, CapDeleteProducts,
				},
			},
			{
				Name:   "customers",
				Master: CapManageCustomers,
				Members: []string{
					CapViewCustomers, CapViewOwnCustomers, CapViewBranchCustomers,
					CapViewCustomerDetails, CapEditCustomers, CapDeleteCustomers,
				},
			},
			{
				Name:   "marketing",
				Master: CapManageMarketing,
				Members: []string{
					CapSendBroadcasts, CapViewCampaigns,
				},
			},
			{
				Name:   "settings",
				Master: CapManageSettings,
				Members: []string{
					CapEditOrganization, CapManageRoles,
				},
			},
		},
		Aliases: map[string]string{
			// Legacy names kept for old call sites; single-level lookup only.
			"can_manage_center":  CapManageSettings,
			"can_view_orders":    CapViewAllOrders,
			"can_view_reports":   CapViewFinancialReports,
			"can_export_reports": CapExportData,
		},
		Scopes: map[string]ScopeRule{
			KindOrders:    {All: CapViewAllOrders, Own: CapViewOwnOrders, Branch: CapViewBranchOrders},
			KindCustomers: {All: CapViewCustomers, Own: CapViewOwnCustomers, Branch: CapViewBranchCustomers},
			KindStaff:     {All: CapViewStaff, Branch: CapViewBranchStaff},
			KindBranches:  {All: CapViewBranches, Branch: CapViewOwnBranch},
		},
	}
	v.index()
	return v
}

// VocabularyHolder stores the active vocabulary and swaps it atomically on
// config reload.
type VocabularyHolder struct {
	current atomic.Value // holds Vocabulary
}

// NewVocabularyHolder loads the vocabulary from rbac.yml, falling back to
// compiled-in defaults, and watches the file for changes.
func NewVocabularyHolder(appCfg config.Config, log *zap.Logger) (*VocabularyHolder, error) {
	holder := &VocabularyHolder{}
	log = log.Named("rbac.vocabulary")

	v := viper.New()
	v.SetConfigName("rbac")
	v.SetConfigType("yml")
	if appCfg.RBACConfigPath != "" {
		v.AddConfigPath(filepath.Dir(appCfg.RBACConfigPath))
	}
	v.AddConfigPath("/etc/multilang")
	v.AddConfigPath(".")
	v.SetEnvPrefix("MULTILANG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		vocab := DefaultVocabulary()
		holder.current.Store(vocab)
		return holder, nil
	}

	vocab, err := unmarshalVocabulary(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(vocab)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalVocabulary(v)
		if err != nil {
			log.Warn("vocabulary reload ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("vocabulary reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticHolder wraps a fixed vocabulary; used by tests and by callers
// that manage their own configuration.
func NewStaticHolder(vocab Vocabulary) *VocabularyHolder {
	vocab.index()
	holder := &VocabularyHolder{}
	holder.current.Store(vocab)
	return holder
}

func (h *VocabularyHolder) Get() Vocabulary {
	return h.current.Load().(Vocabulary)
}

func unmarshalVocabulary(v *viper.Viper) (Vocabulary, error) {
	var vocab Vocabulary
	if err := v.UnmarshalKey("rbac", &vocab); err != nil {
		return Vocabulary{}, err
	}
	if err := validateVocabulary(vocab); err != nil {
		return Vocabulary{}, err
	}
	vocab.index()
	return vocab, nil
}

func validateVocabulary(v Vocabulary) error {
	if len(v.Domains) == 0 {
		return errors.New("rbac.domains cannot be empty")
	}
	seen := make(map[string]string)
	for _, d := range v.Domains {
		if strings.TrimSpace(d.Master) == "" {
			return errors.New("rbac domain missing master flag")
		}
		for _, member := range d.Members {
			if owner, ok := seen[member]; ok && owner != d.Name {
				return errors.New("capability " + member + " appears in multiple domains")
			}
			seen[member] = d.Name
		}
	}
	for legacy, canonical := range v.Aliases {
		if legacy == canonical {
			return errors.New("alias " + legacy + " maps to itself")
		}
		if _, chained := v.Aliases[canonical]; chained {
			return errors.New("alias " + legacy + " chains to another alias")
		}
	}
	return nil
}
