package mysql

const upsertResourceSQL = `
INSERT INTO resources
  (id, category, name, capacity, day_price, rates, maintenance, deleted)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  category    = VALUES(category),
  name        = VALUES(name),
  capacity    = VALUES(capacity),
  day_price   = VALUES(day_price),
  rates       = VALUES(rates),
  maintenance = VALUES(maintenance),
  deleted     = VALUES(deleted),
  updated_at  = CURRENT_TIMESTAMP
`

const setMaintenanceSQL = `
UPDATE resources SET maintenance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted = 0
`

const resourceColumns = `
  id, category, name, capacity, day_price, rates, maintenance, deleted, created_at, updated_at`

const getResourceSQL = `
SELECT` + resourceColumns + `
FROM resources
WHERE id = ? AND deleted = 0`

// The FOR UPDATE row lock on the resource record is the per-resource
// mutual-exclusion scope spanning capacity validation and reservation
// persistence.
const getResourceForUpdateSQL = getResourceSQL + `
FOR UPDATE`

const listResourcesSQL = `
SELECT` + resourceColumns + `
FROM resources
WHERE deleted = 0
ORDER BY id`

const reservationColumns = `
  id, resource_id, guest_name, guest_contact, start_date, end_date,
  adults, children, seniors, pwds, total_price, deposit_due,
  status, payment_ref, notes, created_at, updated_at`

const insertReservationSQL = `
INSERT INTO reservations
  (resource_id, guest_name, guest_contact, start_date, end_date,
   adults, children, seniors, pwds, total_price, deposit_due, status, payment_ref, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateReservationSQL = `
UPDATE reservations
SET status = ?, payment_ref = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const getReservationSQL = `
SELECT` + reservationColumns + `
FROM reservations
WHERE id = ?`

// Half-open overlap against [?, ?): start_date < query end AND end_date > query start.
const listActiveSQL = `
SELECT` + reservationColumns + `
FROM reservations
WHERE resource_id = ?
  AND status IN ('pending', 'accepted', 'booked', 'onride')
  AND start_date < ?
  AND end_date > ?
ORDER BY start_date, id`
