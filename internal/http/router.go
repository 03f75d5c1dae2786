package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires the handler set and middleware chain for the API.
type RouterConfig struct {
	Auth        *AuthHandler
	Clients     *ClientHandler
	Rooms       *RoomHandler
	Equipment   *EquipmentHandler
	Classes     *ClassHandler
	Bookings    *BookingHandler
	Enrollments *EnrollmentHandler
	Attendance  *AttendanceHandler
	Payments    *PaymentHandler
	Calendar    *CalendarHandler
	Middleware  []func(http.Handler) http.Handler
}

// NewRouter assembles the HTTP mux. Middleware wraps the whole mux in the
// order given.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
		mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
	}

	registerCollection(mux, "/clients", collectionHandlers{
		list:   handlerFor(cfg.Clients, (*ClientHandler).List),
		create: handlerFor(cfg.Clients, (*ClientHandler).Create),
		get:    handlerFor(cfg.Clients, (*ClientHandler).Get),
		update: handlerFor(cfg.Clients, (*ClientHandler).Update),
		delete: handlerFor(cfg.Clients, (*ClientHandler).Delete),
	})

	registerCollection(mux, "/rooms", collectionHandlers{
		list:   handlerFor(cfg.Rooms, (*RoomHandler).List),
		create: handlerFor(cfg.Rooms, (*RoomHandler).Create),
		get:    handlerFor(cfg.Rooms, (*RoomHandler).Get),
		update: handlerFor(cfg.Rooms, (*RoomHandler).Update),
		delete: handlerFor(cfg.Rooms, (*RoomHandler).Delete),
	})

	registerCollection(mux, "/equipment", collectionHandlers{
		list:   handlerFor(cfg.Equipment, (*EquipmentHandler).List),
		create: handlerFor(cfg.Equipment, (*EquipmentHandler).Create),
		get:    handlerFor(cfg.Equipment, (*EquipmentHandler).Get),
		update: handlerFor(cfg.Equipment, (*EquipmentHandler).Update),
		delete: handlerFor(cfg.Equipment, (*EquipmentHandler).Delete),
	})

	registerCollection(mux, "/classes", collectionHandlers{
		list:   handlerFor(cfg.Classes, (*ClassHandler).List),
		create: handlerFor(cfg.Classes, (*ClassHandler).Create),
		get:    handlerFor(cfg.Classes, (*ClassHandler).Get),
		update: handlerFor(cfg.Classes, (*ClassHandler).Update),
		delete: handlerFor(cfg.Classes, (*ClassHandler).Delete),
		actions: map[string]http.HandlerFunc{
			"conflicts": actionFor(cfg.Classes, http.MethodGet, (*ClassHandler).Conflicts),
		},
	})

	if cfg.Bookings != nil {
		mux.HandleFunc("/bookings/availability", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Bookings.Availability(w, r)
		})
	}
	registerCollection(mux, "/bookings", collectionHandlers{
		list:   handlerFor(cfg.Bookings, (*BookingHandler).List),
		create: handlerFor(cfg.Bookings, (*BookingHandler).Create),
		get:    handlerFor(cfg.Bookings, (*BookingHandler).Get),
		update: handlerFor(cfg.Bookings, (*BookingHandler).Update),
		delete: handlerFor(cfg.Bookings, (*BookingHandler).Delete),
		actions: map[string]http.HandlerFunc{
			"return": actionFor(cfg.Bookings, http.MethodPost, (*BookingHandler).Return),
			"cancel": actionFor(cfg.Bookings, http.MethodPost, (*BookingHandler).Cancel),
		},
	})

	registerCollection(mux, "/enrollments", collectionHandlers{
		list:   handlerFor(cfg.Enrollments, (*EnrollmentHandler).List),
		create: handlerFor(cfg.Enrollments, (*EnrollmentHandler).Create),
		get:    handlerFor(cfg.Enrollments, (*EnrollmentHandler).Get),
		update: handlerFor(cfg.Enrollments, (*EnrollmentHandler).Update),
		delete: handlerFor(cfg.Enrollments, (*EnrollmentHandler).Delete),
	})

	registerCollection(mux, "/attendance", collectionHandlers{
		list:   handlerFor(cfg.Attendance, (*AttendanceHandler).List),
		create: handlerFor(cfg.Attendance, (*AttendanceHandler).Create),
		get:    handlerFor(cfg.Attendance, (*AttendanceHandler).Get),
		update: handlerFor(cfg.Attendance, (*AttendanceHandler).Update),
		delete: handlerFor(cfg.Attendance, (*AttendanceHandler).Delete),
	})

	registerCollection(mux, "/payments", collectionHandlers{
		list:   handlerFor(cfg.Payments, (*PaymentHandler).List),
		create: handlerFor(cfg.Payments, (*PaymentHandler).Create),
		get:    handlerFor(cfg.Payments, (*PaymentHandler).Get),
		update: handlerFor(cfg.Payments, (*PaymentHandler).Update),
		delete: handlerFor(cfg.Payments, (*PaymentHandler).Delete),
	})

	if cfg.Calendar != nil {
		mux.HandleFunc("/calendar/events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Events(w, r)
		})
		mux.HandleFunc("/calendar/sync", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Calendar.Sync(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// collectionHandlers describes the method set of one aggregate route. Nil
// entries answer 405.
type collectionHandlers struct {
	list    http.HandlerFunc
	create  http.HandlerFunc
	get     http.HandlerFunc
	update  http.HandlerFunc
	delete  http.HandlerFunc
	actions map[string]http.HandlerFunc
}

func (c collectionHandlers) empty() bool {
	return c.list == nil && c.create == nil && c.get == nil && c.update == nil && c.delete == nil
}

func registerCollection(mux *http.ServeMux, prefix string, handlers collectionHandlers) {
	if handlers.empty() {
		return
	}

	mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			serveOr405(w, r, handlers.list, http.MethodGet, http.MethodPost)
		case http.MethodPost:
			serveOr405(w, r, handlers.create, http.MethodGet, http.MethodPost)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})

	mux.HandleFunc(prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, prefix+"/")
		if rest == "" {
			http.NotFound(w, r)
			return
		}

		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithResourceID(r.Context(), id))

		if action != "" {
			if fn, ok := handlers.actions[action]; ok && fn != nil {
				fn(w, r)
				return
			}
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			serveOr405(w, r, handlers.get, http.MethodGet, http.MethodPut, http.MethodDelete)
		case http.MethodPut:
			serveOr405(w, r, handlers.update, http.MethodGet, http.MethodPut, http.MethodDelete)
		case http.MethodDelete:
			serveOr405(w, r, handlers.delete, http.MethodGet, http.MethodPut, http.MethodDelete)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	})
}

// handlerFor lifts a handler method into an http.HandlerFunc, guarding nil
// receivers so unconfigured aggregates answer 405 instead of panicking.
func handlerFor[H any](h *H, method func(*H, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	if h == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) {
		method(h, w, r)
	}
}

func actionFor[H any](h *H, allowedMethod string, method func(*H, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	if h == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != allowedMethod {
			methodNotAllowed(w, allowedMethod)
			return
		}
		method(h, w, r)
	}
}

func serveOr405(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc, allowed ...string) {
	if fn == nil {
		methodNotAllowed(w, allowed...)
		return
	}
	fn(w, r)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
