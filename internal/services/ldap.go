package services

import (
	"crypto/tls"
	"fmt"

	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/go-ldap/ldap/v3"
)

// LDAPService verifies directory credentials. Optional; when disabled the
// auth service only accepts local accounts.
type LDAPService struct {
	cfg config.LDAPConfig
}

func NewLDAPService(cfg config.LDAPConfig) *LDAPService {
	return &LDAPService{cfg: cfg}
}

func (s *LDAPService) Enabled() bool { return s.cfg.Enabled }

// LDAPEntry carries the directory attributes we provision accounts from.
type LDAPEntry struct {
	DN        string
	Email     string
	FirstName string
	LastName  string
}

// Authenticate searches for the user by email and binds with their
// credentials. Returns the directory entry on success.
func (s *LDAPService) Authenticate(email, password string) (*LDAPEntry, error) {
	if password == "" {
		return nil, fmt.Errorf("empty password")
	}

	conn, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if s.cfg.BindDN != "" {
		if err := conn.Bind(s.cfg.BindDN, s.cfg.BindPassword); err != nil {
			logger.Errorf("[LDAP] service bind failed: %v", err)
			return nil, fmt.Errorf("ldap service bind: %w", err)
		}
	}

	filter := s.cfg.UserFilter
	if filter == "" {
		filter = "(mail=%s)"
	}

	searchRequest := ldap.NewSearchRequest(
		s.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 10, false,
		fmt.Sprintf(filter, ldap.EscapeFilter(email)),
		[]string{"dn", "mail", "givenName", "sn"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("user not found in directory")
	}

	entry := result.Entries[0]

	// Re-bind as the user to verify the password
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return &LDAPEntry{
		DN:        entry.DN,
		Email:     entry.GetAttributeValue("mail"),
		FirstName: entry.GetAttributeValue("givenName"),
		LastName:  entry.GetAttributeValue("sn"),
	}, nil
}

func (s *LDAPService) connect() (*ldap.Conn, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if s.cfg.UseSSL {
		return ldap.DialTLS("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	}
	return ldap.Dial("tcp", addr)
}
