package domain

import "time"

// Company is the tenant root. It exclusively owns its agent roster.
type Company struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Phone         string
	Address       string
	Description   string
	Website       string
	AvatarURL     string
	AvatarManaged bool
	BannerURL     string
	BannerManaged bool
	Agents        []Agent
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FindAgent returns the roster entry with the given id.
func (c *Company) FindAgent(agentID string) (*Agent, bool) {
	for i := range c.Agents {
		if c.Agents[i].ID == agentID {
			return &c.Agents[i], true
		}
	}
	return nil, false
}

// FindAgentByEmail returns the roster entry with the given normalized email.
func (c *Company) FindAgentByEmail(email string) (*Agent, bool) {
	for i := range c.Agents {
		if c.Agents[i].Email == email {
			return &c.Agents[i], true
		}
	}
	return nil, false
}

// CompanyPatch carries the fields of a partial update. Nil means "leave unchanged".
type CompanyPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Phone        *string
	Address      *string
	Description  *string
	Website      *string
	AvatarURL    *string
	BannerURL    *string
}

// Empty reports whether the patch changes nothing.
func (p CompanyPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Phone == nil &&
		p.Address == nil && p.Description == nil && p.Website == nil &&
		p.AvatarURL == nil && p.BannerURL == nil
}
