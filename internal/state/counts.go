package state

import "github.com/five82/addressable/internal/addressable"

// Counts are the four dashboard tiles plus the untagged banner.
type Counts struct {
	Campaigns    int
	Cards        int
	Calls        int
	TextMessages int
	Untagged     int
}

// Counts derives the dashboard tiles from the snapshot.
func (d Dashboard) Counts() Counts {
	var c Counts
	for _, m := range d.Mailings {
		if m.IsCampaign() {
			c.Campaigns++
		}
		if m.MailingStatus == addressable.StateMailed {
			c.Cards += m.ActiveRecipientCount
		}
	}
	c.Calls = len(d.Leads)
	for _, l := range d.Leads {
		if l.Status.IsUntagged() {
			c.Untagged++
		}
	}
	for _, n := range d.IncomingMessages {
		c.TextMessages += n
	}
	return c
}

// MailingsIn returns the mailings in bucket, or all of them when bucket is
// empty.
func (d Dashboard) MailingsIn(bucket addressable.MailingStatus) []addressable.Mailing {
	if bucket == "" {
		return cloneSlice(d.Mailings)
	}
	var out []addressable.Mailing
	for _, m := range d.Mailings {
		if m.Status() == bucket {
			out = append(out, m)
		}
	}
	return out
}

// UntaggedLeads returns leads nobody has tagged yet.
func (d Dashboard) UntaggedLeads() []addressable.IncomingLead {
	var out []addressable.IncomingLead
	for _, l := range d.Leads {
		if l.Status.IsUntagged() {
			out = append(out, l)
		}
	}
	return out
}

// Mailing looks up a mailing by id.
func (d Dashboard) Mailing(id int) (addressable.Mailing, bool) {
	for _, m := range d.Mailings {
		if m.ID == id {
			return m, true
		}
	}
	return addressable.Mailing{}, false
}
