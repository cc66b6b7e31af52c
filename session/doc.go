// Package session drives one running application instance through an
// interop.Backend.
//
// # Lifecycle
//
// Open starts the application and returns a Session in the open state.
// Close moves it to closed for good; every later operation, including
// those made through object proxies the session handed out, fails with a
// KindConnection error ("Error validating the connection"). With wraps the
// pair so the session is closed on every exit path.
//
//	err := session.With(ctx, lib, "fdtd", session.Options{Hide: true}, func(s *session.Session) error {
//		if err := s.PutVar(ctx, "I", 3.141592653589); err != nil {
//			return err
//		}
//		rect, err := s.CallWithConstructor(ctx, "addrect", nil, transcoder.OrderedMapOf(
//			"name", "rectangle",
//			"x span", 10.1e-6,
//		))
//		if err != nil {
//			return err
//		}
//		_, err = rect.Attr(ctx, "x_span")
//		return err
//	})
//
// # Calls
//
// Eval sends script text verbatim. Call invokes one application function
// with Go arguments: they are encoded into a temporary cell array, the call
// runs inside a try/catch wrapper, and the temporaries are cleared
// afterwards. Failures keep the application's own message and are
// classified as KindDisabled, KindTypeMismatch, KindNotFound or
// KindEvaluation.
//
// Functions defined by script are tracked separately: AddUserFunctions and
// SyncUserFunctions read them from the application's workspace listing,
// and DeleteUserFunctions removes the tracked ones again.
//
// # Concurrency
//
// Calls block until the application answers; a Session serializes them
// with a mutex. The context is checked before each call but cannot
// interrupt one in progress. The application's selection is shared state:
// ObjectBySelection and AllSelectedObjects report what was selected at the
// moment of the call.
package session
