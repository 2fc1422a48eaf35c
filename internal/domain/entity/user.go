package entity

import "time"

// User usuario registrado; en los documentos por orden actúa como cliente.
// La gestión de usuarios y sesiones vive fuera de este servicio: aquí solo se lee.
type User struct {
	ID        string
	FirstName string
	Email     string
	Phone     string
	MENumber  string   // número de staff "ME No." impreso en notas de entrega
	Roles     []string // customer, staff, admin
	CreatedAt time.Time
	UpdatedAt time.Time
}
