package posting

import "time"

// Postings is an ordered pool of postings. Every operation keeps the order.
type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, item := range p.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Recent returns the postings posted or ingested at or after cutoff.
func (p *Postings) Recent(cutoff time.Time) *Postings {
	return p.keep(func(item *Posting) bool { return item.IsRecent(cutoff) })
}

// Eligible returns the postings with a matchable remote scope.
func (p *Postings) Eligible() *Postings {
	return p.keep(func(item *Posting) bool { return item.RemoteScope.Matchable() })
}

func (p *Postings) keep(fn func(*Posting) bool) *Postings {
	kept := &Postings{Items: make([]*Posting, 0, p.Len())}
	if p == nil {
		return kept
	}
	for _, item := range p.Items {
		if fn(item) {
			kept.Items = append(kept.Items, item)
		}
	}
	return kept
}
