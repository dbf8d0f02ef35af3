package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/healsync/internal/alert"
	"github.com/hackgods/healsync/internal/backend"
	"github.com/hackgods/healsync/internal/booking"
	"github.com/hackgods/healsync/internal/linker"
	"github.com/hackgods/healsync/internal/localstore"
	"github.com/hackgods/healsync/internal/session"
	"github.com/hackgods/healsync/internal/slots"
)

// errReported marks failures the user has already been shown as an alert.
var errReported = errors.New("reported")

func (a *app) loginCmd() *cobra.Command {
	var id, userType, name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Remember who is using this client",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := session.ParseUserType(userType)
			if err != nil {
				return err
			}
			s := &session.Session{UserID: strings.TrimSpace(id), UserType: t, Name: name}
			if err := session.Save(a.store, s); err != nil {
				return err
			}
			alert.Success(a.notifier, fmt.Sprintf("Signed in as %s %s", t, s.UserID))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id")
	cmd.Flags().StringVar(&userType, "type", string(session.UserPatient), "patient, doctor or admin")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Clear(a.store); err != nil {
				return err
			}
			alert.Info(a.notifier, "Signed out")
			return nil
		},
	}
}

func (a *app) slotsCmd() *cobra.Command {
	var specialty, date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List open slots for a specialty and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := a.fetchSelector(cmd, specialty, date)
			if err != nil {
				return err
			}
			a.printOptions(sel)
			return nil
		},
	}
	cmd.Flags().StringVar(&specialty, "specialty", "", "specialty, e.g. Cardiology")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD")
	return cmd
}

func (a *app) fetchSelector(cmd *cobra.Command, specialty, date string) (*slots.Selector, error) {
	client := slots.NewClient(a.api, a.cfg.SlotDuration, a.logger)
	got, err := client.FetchSlots(cmd.Context(), specialty, date)
	if err != nil {
		return nil, err
	}

	sel := &slots.Selector{}
	sel.Populate(got)
	if sel.Len() > 0 {
		if opt, _ := sel.Select(0); opt.Fallback {
			alert.Warning(a.notifier, "Live availability is unavailable, showing the default schedule. Pick a doctor with --doctor.")
		}
	}
	return sel, nil
}

func (a *app) printOptions(sel *slots.Selector) {
	if sel.Len() == 0 {
		alert.Info(a.notifier, "No open slots for that day")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTIME\tDOCTOR\tDOCTOR ID")
	for i, opt := range sel.Options() {
		doctor := opt.DoctorName
		if opt.Fallback {
			doctor = "(any)"
		}
		fmt.Fprintf(w, "%d\t%s-%s\t%s\t%s\n", i+1, opt.StartTime, opt.EndTime, doctor, opt.DoctorID)
	}
	w.Flush()
}

func (a *app) bookCmd() *cobra.Command {
	var form booking.Form
	var slotNumber int
	var wait bool

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment for the signed-in patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Load(a.store)
			if err != nil && !errors.Is(err, session.ErrNoSession) {
				return err
			}

			if slotNumber > 0 {
				sel, err := a.fetchSelector(cmd, form.Specialty, form.Date)
				if err != nil {
					return err
				}
				opt, err := sel.Select(slotNumber - 1)
				if err != nil {
					return err
				}
				form.ApplySlot(opt)
			}

			nav := newTerminalNavigator(a.out)
			ctrl := booking.NewController(booking.Config{
				Booker:        a.api,
				Bookings:      a.store,
				Navigator:     nav,
				Notifier:      a.notifier,
				Session:       sess,
				Duration:      a.cfg.SlotDuration,
				RedirectDelay: a.cfg.RedirectDelay,
				Logger:        a.logger,
			})

			if _, err := ctrl.Submit(cmd.Context(), form); err != nil {
				return fmt.Errorf("%w: %v", errReported, err)
			}

			if wait {
				select {
				case <-nav.done:
				case <-cmd.Context().Done():
				case <-time.After(a.cfg.RedirectDelay + 5*time.Second):
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&form.DoctorID, "doctor", "", "doctor id")
	cmd.Flags().StringVar(&form.Specialty, "specialty", "", "specialty")
	cmd.Flags().StringVar(&form.Date, "date", "", "day as YYYY-MM-DD")
	cmd.Flags().StringVar(&form.Time, "time", "", "start time as HH:MM")
	cmd.Flags().StringVar(&form.Reason, "reason", "", "reason for the visit")
	cmd.Flags().IntVar(&slotNumber, "slot", 0, "pick slot N from the slots listing instead of --time")
	cmd.Flags().BoolVar(&wait, "wait", true, "wait for the redirect to the profile page")
	return cmd
}

func (a *app) patientsCmd() *cobra.Command {
	var doctorID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List the patients linked to a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if doctorID == "" {
				sess, err := a.session()
				if err != nil {
					return err
				}
				if sess.UserType != session.UserDoctor {
					return errors.New("--doctor is required unless signed in as a doctor")
				}
				doctorID = sess.UserID
			}

			l := linker.New(a.api, a.store, a.logger)
			patients, err := l.ResolvePatients(cmd.Context(), doctorID)
			if err != nil {
				return err
			}

			if asJSON {
				return a.printJSON(patients)
			}
			if len(patients) == 0 {
				alert.Info(a.notifier, "No patients found")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAGE\tGENDER\tPHONE\tLAST VISIT\tSTATUS")
			for _, p := range patients {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s %s\t%s\n",
					p.ID, p.PatientName, p.PatientAge, p.Gender, p.MobileNo, p.AppointmentDate, p.AppointmentTime, p.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&doctorID, "doctor", "", "doctor id (defaults to the signed-in doctor)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) appointmentsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List the signed-in patient's appointments and cache them locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if !sess.IsPatient() {
				return errors.New("sign in as a patient to list appointments")
			}

			appts, err := a.api.PatientAppointments(cmd.Context(), sess.UserID)
			if err != nil {
				msg := backend.Message(err)
				if msg == "" {
					msg = "Failed to load appointments"
				}
				alert.Error(a.notifier, msg)
				return fmt.Errorf("%w: %v", errReported, err)
			}

			if err := a.store.Set(localstore.KeyAppointments, appts); err != nil {
				a.logger.Warn().Err(err).Msg("could not cache appointments")
			}

			if asJSON {
				return a.printJSON(appts)
			}
			if len(appts) == 0 {
				alert.Info(a.notifier, "No appointments yet")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tTIME\tDOCTOR\tSPECIALTY\tSTATUS")
			for _, ap := range appts {
				doctor := ap.DoctorName
				if doctor == "" {
					doctor = ap.DoctorID.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\t%s\t%s\n",
					ap.ID, ap.Date, ap.StartTime, ap.EndTime, doctor, ap.Specialty, ap.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel APPOINTMENT_ID",
		Short: "Cancel a scheduled appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appt, err := a.api.CancelAppointment(cmd.Context(), args[0])
			if err != nil {
				msg := backend.Message(err)
				if msg == "" {
					msg = "Failed to cancel appointment"
				}
				alert.Error(a.notifier, msg)
				return fmt.Errorf("%w: %v", errReported, err)
			}
			alert.Success(a.notifier, fmt.Sprintf("Appointment %s is now %s", appt.ID, appt.Status))
			return nil
		},
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
