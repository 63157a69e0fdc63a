package services

import "thesisguard/internal/models"

// Access policy predicates. Pure functions with no side effects; every
// mutating pipeline operation checks the relevant predicate before touching
// any state.

// CanView allows the owning account and admins to read a submission and its
// report.
func CanView(account *models.Account, sub *models.Submission) bool {
	if account == nil {
		return false
	}
	return account.IsAdmin || account.ID == sub.OwnerID
}

// CanMutate allows admins to act on any submission. Owners may only act
// while the review is still processing; completed reviews are read-only for
// them.
func CanMutate(account *models.Account, sub *models.Submission) bool {
	if account == nil {
		return false
	}
	if account.IsAdmin {
		return true
	}
	return account.ID == sub.OwnerID && sub.Status == models.StatusProcessing
}

// CanDelete allows the owning account and admins to remove a submission.
func CanDelete(account *models.Account, sub *models.Submission) bool {
	if account == nil {
		return false
	}
	return account.IsAdmin || account.ID == sub.OwnerID
}

// CanDecide gates admin pass/fail decisions.
func CanDecide(account *models.Account) bool {
	return account != nil && account.IsAdmin
}
