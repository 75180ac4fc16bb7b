package employee

import (
	"context"
	"maps"
	"sort"
	"strings"

	"ems/internal/domain/apperror"
)

type memChildren[T Child[T]] struct {
	next int64
	rows map[int64]map[int64]T
}

func newMemChildren[T Child[T]]() *memChildren[T] {
	return &memChildren[T]{rows: map[int64]map[int64]T{}}
}

func (m *memChildren[T]) clone() *memChildren[T] {
	out := &memChildren[T]{next: m.next, rows: map[int64]map[int64]T{}}
	for emp, rows := range m.rows {
		out.rows[emp] = maps.Clone(rows)
	}
	return out
}

func (m *memChildren[T]) List(_ context.Context, employeeID int64) ([]T, error) {
	out := []T{}
	for _, item := range m.rows[employeeID] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChildID() < out[j].ChildID() })
	return out, nil
}

func (m *memChildren[T]) Insert(_ context.Context, employeeID int64, item T) (T, error) {
	m.next++
	item = item.WithKey(m.next, 0)
	if m.rows[employeeID] == nil {
		m.rows[employeeID] = map[int64]T{}
	}
	m.rows[employeeID][m.next] = item
	return item, nil
}

func (m *memChildren[T]) Update(_ context.Context, employeeID int64, item T) (T, error) {
	current, ok := m.rows[employeeID][item.ChildID()]
	if !ok || *current.ChildVersion() != expected(item.ChildVersion()) {
		var zero T
		return zero, apperror.ConcurrencyConflict("record %d was modified by another request", item.ChildID())
	}
	item = item.WithKey(item.ChildID(), *current.ChildVersion()+1)
	m.rows[employeeID][item.ChildID()] = item
	return item, nil
}

func (m *memChildren[T]) Delete(_ context.Context, employeeID int64, ids []int64) error {
	for _, id := range ids {
		delete(m.rows[employeeID], id)
	}
	return nil
}

type memState struct {
	nextID    int64
	nextDoc   int64
	nextPhoto int64
	employees map[int64]Employee
	documents map[int64]Document
	photos    map[int64]ProfilePhoto

	educations     *memChildren[Education]
	certifications *memChildren[Certification]
	skills         *memChildren[Skill]
	experiences    *memChildren[Experience]
}

func newMemState() *memState {
	return &memState{
		employees:      map[int64]Employee{},
		documents:      map[int64]Document{},
		photos:         map[int64]ProfilePhoto{},
		educations:     newMemChildren[Education](),
		certifications: newMemChildren[Certification](),
		skills:         newMemChildren[Skill](),
		experiences:    newMemChildren[Experience](),
	}
}

func (m *memState) clone() *memState {
	return &memState{
		nextID:         m.nextID,
		nextDoc:        m.nextDoc,
		nextPhoto:      m.nextPhoto,
		employees:      maps.Clone(m.employees),
		documents:      maps.Clone(m.documents),
		photos:         maps.Clone(m.photos),
		educations:     m.educations.clone(),
		certifications: m.certifications.clone(),
		skills:         m.skills.clone(),
		experiences:    m.experiences.clone(),
	}
}

// memDB routes every store call to the current state so the fake
// transactor can swap in a snapshot on rollback.
type memDB struct {
	state *memState
}

func newMemDB() *memDB {
	return &memDB{state: newMemState()}
}

func (d *memDB) stores() Stores {
	return Stores{
		Employees:      memEmployees{d},
		Educations:     childProxy[Education]{func() *memChildren[Education] { return d.state.educations }},
		Certifications: childProxy[Certification]{func() *memChildren[Certification] { return d.state.certifications }},
		Skills:         childProxy[Skill]{func() *memChildren[Skill] { return d.state.skills }},
		Experiences:    childProxy[Experience]{func() *memChildren[Experience] { return d.state.experiences }},
		Documents:      memDocuments{d},
		Photos:         memPhotos{d},
	}
}

func (d *memDB) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (d *memDB) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	snapshot := d.state.clone()
	if err := fn(ctx); err != nil {
		d.state = snapshot
		return err
	}
	return nil
}

type childProxy[T Child[T]] struct {
	get func() *memChildren[T]
}

func (p childProxy[T]) List(ctx context.Context, employeeID int64) ([]T, error) {
	return p.get().List(ctx, employeeID)
}

func (p childProxy[T]) Insert(ctx context.Context, employeeID int64, item T) (T, error) {
	return p.get().Insert(ctx, employeeID, item)
}

func (p childProxy[T]) Update(ctx context.Context, employeeID int64, item T) (T, error) {
	return p.get().Update(ctx, employeeID, item)
}

func (p childProxy[T]) Delete(ctx context.Context, employeeID int64, ids []int64) error {
	return p.get().Delete(ctx, employeeID, ids)
}

type memEmployees struct{ d *memDB }

func (m memEmployees) Insert(_ context.Context, emp *Employee) error {
	m.d.state.nextID++
	emp.ID = m.d.state.nextID
	m.d.state.employees[emp.ID] = *emp
	return nil
}

func (m memEmployees) Get(_ context.Context, id int64) (Employee, error) {
	emp, ok := m.d.state.employees[id]
	if !ok {
		return Employee{}, apperror.NotFound("Employee not found with id: %d", id)
	}
	return emp, nil
}

func (m memEmployees) List(_ context.Context, page Page) ([]Employee, error) {
	out := []Employee{}
	for _, emp := range m.d.state.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if page.Offset >= len(out) {
		return []Employee{}, nil
	}
	out = out[page.Offset:]
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (m memEmployees) FindByEmail(_ context.Context, email string) (Employee, error) {
	for _, emp := range m.d.state.employees {
		if emp.Email == email || (emp.PersonalEmail != "" && emp.PersonalEmail == email) {
			return emp, nil
		}
	}
	return Employee{}, apperror.NotFound("Employee not found with email: %s", email)
}

func (m memEmployees) Update(_ context.Context, emp *Employee) error {
	if _, ok := m.d.state.employees[emp.ID]; !ok {
		return apperror.NotFound("Employee not found with id: %d", emp.ID)
	}
	m.d.state.employees[emp.ID] = *emp
	return nil
}

func (m memEmployees) Delete(_ context.Context, id int64) error {
	delete(m.d.state.employees, id)
	delete(m.d.state.photos, id)
	return nil
}

func (m memEmployees) ValueTaken(_ context.Context, field UniqueField, value string, excludeID int64) (bool, error) {
	for id, emp := range m.d.state.employees {
		if id == excludeID {
			continue
		}
		var got string
		switch field {
		case FieldEmail:
			got = emp.Email
		case FieldPersonalEmail:
			got = emp.PersonalEmail
		case FieldMobile:
			got = emp.Mobile
		}
		if got != "" && strings.EqualFold(got, value) {
			return true, nil
		}
	}
	return false, nil
}

type memDocuments struct{ d *memDB }

func (m memDocuments) ListDocuments(_ context.Context, employeeID int64) ([]Document, error) {
	out := []Document{}
	for _, doc := range m.d.state.documents {
		if doc.EmployeeID == employeeID {
			doc.Data = nil
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memDocuments) GetDocument(_ context.Context, employeeID, documentID int64) (Document, error) {
	doc, ok := m.d.state.documents[documentID]
	if !ok || doc.EmployeeID != employeeID {
		return Document{}, documentNotFound(documentID)
	}
	return doc, nil
}

func (m memDocuments) InsertDocument(_ context.Context, employeeID int64, doc Document) (Document, error) {
	m.d.state.nextDoc++
	doc.ID = m.d.state.nextDoc
	doc.EmployeeID = employeeID
	doc.FileSize = int64(len(doc.Data))
	doc.Version = versionPtr(0)
	m.d.state.documents[doc.ID] = doc
	return doc, nil
}

func (m memDocuments) UpdateDocumentMeta(_ context.Context, employeeID int64, doc Document) (Document, error) {
	current, ok := m.d.state.documents[doc.ID]
	if !ok || current.EmployeeID != employeeID || *current.Version != expected(doc.Version) {
		return Document{}, apperror.ConcurrencyConflict("document %d was modified by another request", doc.ID)
	}
	current.DocumentType = doc.DocumentType
	current.Version = versionPtr(*current.Version + 1)
	m.d.state.documents[doc.ID] = current
	return current, nil
}

func (m memDocuments) DeleteDocuments(_ context.Context, employeeID int64, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if doc, ok := m.d.state.documents[id]; ok && doc.EmployeeID == employeeID {
			delete(m.d.state.documents, id)
			n++
		}
	}
	return n, nil
}

func (m memDocuments) DeleteAllDocuments(_ context.Context, employeeID int64) error {
	for id, doc := range m.d.state.documents {
		if doc.EmployeeID == employeeID {
			delete(m.d.state.documents, id)
		}
	}
	return nil
}

type memPhotos struct{ d *memDB }

func (m memPhotos) GetPhoto(_ context.Context, employeeID int64) (*ProfilePhoto, error) {
	photo, ok := m.d.state.photos[employeeID]
	if !ok {
		return nil, nil
	}
	return &photo, nil
}

func (m memPhotos) ReplacePhoto(_ context.Context, employeeID int64, photo ProfilePhoto) (ProfilePhoto, error) {
	m.d.state.nextPhoto++
	photo.ID = m.d.state.nextPhoto
	photo.EmployeeID = employeeID
	photo.FileSize = int64(len(photo.Data))
	m.d.state.photos[employeeID] = photo
	return photo, nil
}

func (m memPhotos) DeletePhoto(_ context.Context, employeeID int64) (bool, error) {
	_, ok := m.d.state.photos[employeeID]
	delete(m.d.state.photos, employeeID)
	return ok, nil
}

type countingEvents map[string]int

func (c countingEvents) Event(name string) { c[name]++ }
