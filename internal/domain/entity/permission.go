package entity

import (
	"github.com/usuariosapp/accounts-api/pkg/apperror"
)

// Permission is the closed set of account roles, ordered
// Operator < Supervisor < Manager. Stored as its integer value.
type Permission int

const (
	PermissionOperator Permission = iota + 1
	PermissionSupervisor
	PermissionManager
)

func (p Permission) Valid() bool {
	return p >= PermissionOperator && p <= PermissionManager
}

func (p Permission) String() string {
	switch p {
	case PermissionOperator:
		return "Operator"
	case PermissionSupervisor:
		return "Supervisor"
	case PermissionManager:
		return "Manager"
	default:
		return "Unknown"
	}
}

// ParsePermission converts untrusted input into a Permission.
func ParsePermission(s string) (Permission, error) {
	switch s {
	case "Operator":
		return PermissionOperator, nil
	case "Supervisor":
		return PermissionSupervisor, nil
	case "Manager":
		return PermissionManager, nil
	default:
		return 0, apperror.InvalidArgument("permission", "invalid permission, valid values: Operator, Supervisor, Manager")
	}
}
